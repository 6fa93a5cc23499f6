package loader

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "sales-assistant/internal/common/errors"
	"sales-assistant/internal/interpreter"
)

// VerifyReport lists per-table row counts and any integrity problems found.
type VerifyReport struct {
	Tables        map[string]int `json:"tables"`
	ViewRows      int            `json:"viewRows"`
	MissingTables []string       `json:"missingTables,omitempty"`
	EmptyTables   []string       `json:"emptyTables,omitempty"`
	Orphans       map[string]int `json:"orphans,omitempty"`
}

// OK reports whether every table exists and no reference is broken.
func (r *VerifyReport) OK() bool {
	return len(r.MissingTables) == 0 && len(r.Orphans) == 0
}

var orphanChecks = []struct {
	name  string
	query string
}{
	{
		name:  "invoice_items.invoice_id",
		query: `SELECT COUNT(*) FROM invoice_items ii WHERE NOT EXISTS (SELECT 1 FROM invoices i WHERE i.invoice_id = ii.invoice_id)`,
	},
	{
		name:  "invoice_items.stock_code",
		query: `SELECT COUNT(*) FROM invoice_items ii WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.stock_code = ii.stock_code)`,
	},
	{
		name:  "invoices.customer_id",
		query: `SELECT COUNT(*) FROM invoices i WHERE i.customer_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM customers c WHERE c.customer_id = i.customer_id)`,
	},
}

// Verify checks that the four tables exist, counts their rows and looks for broken
// references. A missing table or an orphaned row is returned as a DATA_QUALITY error
// alongside the report; an empty table is only reported.
func Verify(ctx context.Context, db *sql.DB) (*VerifyReport, error) {
	report := &VerifyReport{Tables: map[string]int{}}

	for _, entity := range interpreter.Catalog() {
		n, err := count(ctx, db, fmt.Sprintf("SELECT COUNT(*) FROM %s", entity.Table))
		if err != nil {
			report.MissingTables = append(report.MissingTables, entity.Table)
			continue
		}
		report.Tables[entity.Table] = n
		if n == 0 {
			report.EmptyTables = append(report.EmptyTables, entity.Table)
		}
	}

	if len(report.MissingTables) > 0 {
		return report, apperrors.NewDataQualityError("missing tables", map[string]interface{}{
			"missingTables": report.MissingTables,
		})
	}

	for _, check := range orphanChecks {
		n, err := count(ctx, db, check.query)
		if err != nil {
			return report, apperrors.NewQueryExecutionFailedError("verify", err)
		}
		if n > 0 {
			if report.Orphans == nil {
				report.Orphans = map[string]int{}
			}
			report.Orphans[check.name] = n
		}
	}

	if n, err := count(ctx, db, fmt.Sprintf("SELECT COUNT(*) FROM %s", ViewTransactions)); err == nil {
		report.ViewRows = n
	}

	if len(report.Orphans) > 0 {
		return report, apperrors.NewDataQualityError("broken references", map[string]interface{}{
			"orphans": report.Orphans,
		})
	}
	return report, nil
}

func count(ctx context.Context, db *sql.DB, query string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
