// internal/interpreter/queries/revenue.go
package queries

import "fmt"

func TotalRevenue(_ Dialect, _ Params) (string, []interface{}, error) {
	return `SELECT SUM(quantity * price) AS total_revenue
FROM invoice_items`, nil, nil
}

func RevenueByCountry(_ Dialect, _ Params) (string, []interface{}, error) {
	return `SELECT i.country AS country, SUM(ii.quantity * ii.price) AS revenue
FROM invoice_items ii
JOIN invoices i ON ii.invoice_id = i.invoice_id
GROUP BY i.country
ORDER BY revenue DESC, country ASC`, nil, nil
}

// RevenueInCountry keeps every invoice whose country contains the bound name as a
// case-sensitive substring, so longer names that embed it also match.
func RevenueInCountry(d Dialect, p Params) (string, []interface{}, error) {
	if p.Country == "" {
		return "", nil, fmt.Errorf("%w: country", ErrMissingParam)
	}

	query := fmt.Sprintf(`SELECT SUM(ii.quantity * ii.price) AS revenue
FROM invoice_items ii
JOIN invoices i ON ii.invoice_id = i.invoice_id
WHERE %s`, d.Contains("i.country", 1))

	return query, []interface{}{p.Country}, nil
}
