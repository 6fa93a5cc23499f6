// internal/interpreter/compiler.go
package interpreter

import (
	"errors"
	"fmt"

	"sales-assistant/internal/interpreter/queries"
	"sales-assistant/internal/models"
)

var ErrUnrecognizedIntent = errors.New("UNRECOGNIZED_INTENT")

const (
	HelpMessage            = "Try: 'Total Revenue', 'Sales in France', 'Top 5 Customers'."
	FallbackInterpretation = "Could not detect a country, showing total revenue instead."
)

// Limits are the row limits applied to ranking intents.
type Limits struct {
	TopCustomers int
	TopProducts  int
	Max          int
}

func DefaultLimits() Limits {
	return Limits{TopCustomers: 5, TopProducts: 10, Max: 1000}
}

// Compiler turns an intent and its slots into a bound statement for one dialect.
type Compiler struct {
	dialect queries.Dialect
	limits  Limits
}

func NewCompiler(dialect queries.Dialect, limits Limits) *Compiler {
	return &Compiler{dialect: dialect, limits: limits}
}

func (c *Compiler) Limits() Limits {
	return c.limits
}

// Compile never touches the store. A RevenueInCountry intent without a country
// compiles to total revenue with Fallback set.
func (c *Compiler) Compile(intent models.Intent, slots models.SlotSet) (*models.CompiledQuery, error) {
	var (
		params         queries.Params
		interpretation string
		fallback       bool
	)

	switch intent {
	case models.IntentTotalRevenue:
		interpretation = "Calculating total global revenue."

	case models.IntentRevenueByCountry:
		interpretation = "Aggregating revenue by country."

	case models.IntentRevenueInCountry:
		if slots.Country == nil || *slots.Country == "" {
			intent = models.IntentTotalRevenue
			interpretation = FallbackInterpretation
			fallback = true
			break
		}
		params.Country = *slots.Country
		interpretation = fmt.Sprintf("Calculating revenue for %s.", params.Country)

	case models.IntentTopCustomers:
		limit := c.limits.TopCustomers
		if slots.Limit != nil {
			limit = *slots.Limit
		}
		if err := c.checkLimit(limit); err != nil {
			return nil, err
		}
		params.Limit = limit
		interpretation = fmt.Sprintf("Listing top %d customers.", limit)

	case models.IntentTopProducts:
		if err := c.checkLimit(c.limits.TopProducts); err != nil {
			return nil, err
		}
		params.Limit = c.limits.TopProducts
		interpretation = fmt.Sprintf("Identifying top %d best-selling products.", params.Limit)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedIntent, HelpMessage)
	}

	query, args, err := queries.Build(c.dialect, intent, params)
	if err != nil {
		return nil, err
	}

	return &models.CompiledQuery{
		Intent:         intent,
		SQL:            query,
		Args:           args,
		Interpretation: interpretation,
		Fallback:       fallback,
	}, nil
}

func (c *Compiler) checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: %d must be positive", ErrInvalidLimit, limit)
	}
	if limit > c.limits.Max {
		return fmt.Errorf("%w: %d exceeds maximum of %d", ErrInvalidLimit, limit, c.limits.Max)
	}
	return nil
}
