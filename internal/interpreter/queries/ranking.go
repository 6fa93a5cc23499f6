// internal/interpreter/queries/ranking.go
package queries

import "fmt"

func TopCustomers(d Dialect, p Params) (string, []interface{}, error) {
	if p.Limit <= 0 {
		return "", nil, fmt.Errorf("%w: limit", ErrMissingParam)
	}

	query := fmt.Sprintf(`SELECT i.customer_id AS customer_id, SUM(ii.quantity * ii.price) AS total_spend
FROM invoice_items ii
JOIN invoices i ON ii.invoice_id = i.invoice_id
GROUP BY i.customer_id
ORDER BY total_spend DESC, customer_id ASC
LIMIT %s`, d.Placeholder(1))

	return query, []interface{}{p.Limit}, nil
}

func TopProducts(d Dialect, p Params) (string, []interface{}, error) {
	if p.Limit <= 0 {
		return "", nil, fmt.Errorf("%w: limit", ErrMissingParam)
	}

	query := fmt.Sprintf(`SELECT p.description AS description, SUM(ii.quantity) AS units_sold
FROM invoice_items ii
JOIN products p ON ii.stock_code = p.stock_code
GROUP BY p.description
ORDER BY units_sold DESC, description ASC
LIMIT %s`, d.Placeholder(1))

	return query, []interface{}{p.Limit}, nil
}
