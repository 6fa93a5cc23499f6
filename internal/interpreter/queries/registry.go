// internal/interpreter/queries/registry.go
package queries

import (
	"errors"
	"fmt"

	"sales-assistant/internal/models"
)

var (
	ErrMissingParam       = errors.New("missing required parameter")
	ErrUnknownIntent      = errors.New("unknown intent")
	ErrUnsupportedDialect = errors.New("unsupported dialect")
)

// Params carries the validated slot values a template may bind.
type Params struct {
	Country string
	Limit   int
}

// TemplateFunc renders one intent's statement and its bind arguments.
type TemplateFunc func(d Dialect, p Params) (string, []interface{}, error)

var Registry = map[models.Intent]TemplateFunc{
	models.IntentTotalRevenue:     TotalRevenue,
	models.IntentRevenueByCountry: RevenueByCountry,
	models.IntentRevenueInCountry: RevenueInCountry,
	models.IntentTopCustomers:     TopCustomers,
	models.IntentTopProducts:      TopProducts,
}

func Build(d Dialect, intent models.Intent, p Params) (string, []interface{}, error) {
	fn, exists := Registry[intent]
	if !exists {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownIntent, intent)
	}
	return fn(d, p)
}
