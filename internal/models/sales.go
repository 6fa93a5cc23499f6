// internal/models/sales.go
package models

import (
	"database/sql"
	"time"
)

type Customer struct {
	CustomerID float64 `json:"customerId" db:"customer_id"`
}

type Product struct {
	StockCode   string `json:"stockCode" db:"stock_code"`
	Description string `json:"description" db:"description"`
}

type Invoice struct {
	InvoiceID   string          `json:"invoiceId" db:"invoice_id"`
	CustomerID  sql.NullFloat64 `json:"customerId" db:"customer_id"`
	InvoiceDate sql.NullTime    `json:"invoiceDate" db:"invoice_date"`
	Country     sql.NullString  `json:"country" db:"country"`
}

// InvoiceLine is a row of invoice_items. Quantity and Price are positive in a cleaned dataset.
type InvoiceLine struct {
	ID        int64   `json:"id" db:"id"`
	InvoiceID string  `json:"invoiceId" db:"invoice_id"`
	StockCode string  `json:"stockCode" db:"stock_code"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"`
}

// Revenue returns quantity × price for the line.
func (l InvoiceLine) Revenue() float64 {
	return float64(l.Quantity) * l.Price
}

// SalesRecord is one row of the raw retail export before it is split into entities.
type SalesRecord struct {
	Invoice     string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	Price       float64
	CustomerID  *float64
	Country     string
}
