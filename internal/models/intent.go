// internal/models/intent.go
package models

type Intent string

const (
	IntentRevenueByCountry Intent = "revenue_by_country"
	IntentRevenueInCountry Intent = "revenue_in_country"
	IntentTotalRevenue     Intent = "total_revenue"
	IntentTopCustomers     Intent = "top_customers"
	IntentTopProducts      Intent = "top_products"
	IntentUnrecognized     Intent = "unrecognized"
)

// SlotSet holds the typed values extracted from a question. Nil means not extracted.
type SlotSet struct {
	Country *string `json:"country,omitempty"`
	Limit   *int    `json:"limit,omitempty"`
}

// CompiledQuery is a bound, executable aggregation statement and its interpretation.
type CompiledQuery struct {
	Intent         Intent        `json:"intent"`
	SQL            string        `json:"sql"`
	Args           []interface{} `json:"args,omitempty"`
	Interpretation string        `json:"interpretation"`
	Fallback       bool          `json:"fallback,omitempty"`
}
