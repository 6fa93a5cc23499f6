package loader

import "strings"

// Drop reasons reported in LoadReport.Dropped and the loader row metric.
const (
	DropMalformed         = "malformed"
	DropMissingCustomer   = "missing_customer"
	DropCancelled         = "cancelled"
	DropNonPositiveQty    = "non_positive_quantity"
	DropNonPositivePrice  = "non_positive_price"
	DropMissingInvoiceKey = "missing_key"
)

type Product struct {
	StockCode   string
	Description string
}

type Invoice struct {
	ID         string
	CustomerID *float64
	Date       *string
	Country    *string
}

type Item struct {
	InvoiceID string
	StockCode string
	Quantity  int
	Price     float64
}

// Dataset is the cleaned, deduplicated content ready to insert, each slice in first-seen order.
type Dataset struct {
	Customers []float64
	Products  []Product
	Invoices  []Invoice
	Items     []Item
}

// Clean filters records and deduplicates the reference tables. The first occurrence of
// a customer, stock code or invoice wins.
func Clean(records []Record, report *LoadReport) *Dataset {
	ds := &Dataset{}
	seenCustomers := map[float64]struct{}{}
	seenProducts := map[string]struct{}{}
	seenInvoices := map[string]struct{}{}

	for _, rec := range records {
		if reason := dropReason(rec); reason != "" {
			report.drop(reason)
			continue
		}
		report.RowsKept++

		customerID := *rec.CustomerID
		if _, ok := seenCustomers[customerID]; !ok {
			seenCustomers[customerID] = struct{}{}
			ds.Customers = append(ds.Customers, customerID)
		}

		if _, ok := seenProducts[rec.StockCode]; !ok {
			seenProducts[rec.StockCode] = struct{}{}
			ds.Products = append(ds.Products, Product{StockCode: rec.StockCode, Description: rec.Description})
		}

		if _, ok := seenInvoices[rec.Invoice]; !ok {
			seenInvoices[rec.Invoice] = struct{}{}
			inv := Invoice{ID: rec.Invoice, CustomerID: rec.CustomerID, Country: rec.Country}
			if rec.InvoiceDate != nil {
				formatted := rec.InvoiceDate.Format("2006-01-02 15:04:05")
				inv.Date = &formatted
			}
			ds.Invoices = append(ds.Invoices, inv)
		}

		ds.Items = append(ds.Items, Item{
			InvoiceID: rec.Invoice,
			StockCode: rec.StockCode,
			Quantity:  rec.Quantity,
			Price:     rec.Price,
		})
	}

	return ds
}

func dropReason(rec Record) string {
	switch {
	case rec.Invoice == "" || rec.StockCode == "":
		return DropMissingInvoiceKey
	case rec.CustomerID == nil:
		return DropMissingCustomer
	case strings.HasPrefix(rec.Invoice, "C"):
		return DropCancelled
	case rec.Quantity <= 0:
		return DropNonPositiveQty
	case rec.Price <= 0:
		return DropNonPositivePrice
	}
	return ""
}
