// Package loader builds the sales store from a retail transactions CSV export.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var ErrMissingColumn = errors.New("MISSING_COLUMN")

// Source column names of the transactions export.
const (
	ColInvoice     = "Invoice"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColInvoiceDate = "InvoiceDate"
	ColPrice       = "Price"
	ColCustomerID  = "Customer ID"
	ColCountry     = "Country"
)

var requiredColumns = []string{
	ColInvoice, ColStockCode, ColDescription, ColQuantity,
	ColInvoiceDate, ColPrice, ColCustomerID, ColCountry,
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
}

// Record is one parsed line of the export. Nil pointers mark empty cells.
type Record struct {
	Line        int
	Invoice     string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate *time.Time
	Price       float64
	CustomerID  *float64
	Country     *string
}

// Malformed is a line whose numeric or date cells could not be parsed.
type Malformed struct {
	Line int
	Err  error
}

// ReadCSV parses the export. Columns are matched by header name, so their order is free.
func ReadCSV(r io.Reader) ([]Record, []Malformed, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		records   []Record
		malformed []Malformed
	)
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRecord(line, fields, index)
		if err != nil {
			malformed = append(malformed, Malformed{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}

	return records, malformed, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRecord(line int, fields []string, index map[string]int) (Record, error) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := Record{
		Line:        line,
		Invoice:     cell(ColInvoice),
		StockCode:   cell(ColStockCode),
		Description: cell(ColDescription),
	}

	qty, err := strconv.Atoi(cell(ColQuantity))
	if err != nil {
		return rec, fmt.Errorf("quantity: %w", err)
	}
	rec.Quantity = qty

	if rec.Price, err = strconv.ParseFloat(cell(ColPrice), 64); err != nil {
		return rec, fmt.Errorf("price: %w", err)
	}

	if raw := cell(ColCustomerID); raw != "" {
		id, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, fmt.Errorf("customer id: %w", err)
		}
		rec.CustomerID = &id
	}

	if raw := cell(ColInvoiceDate); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			return rec, err
		}
		rec.InvoiceDate = &ts
	}

	if country := cell(ColCountry); country != "" {
		rec.Country = &country
	}

	return rec, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invoice date: unrecognized format %q", raw)
}
