package loader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"time"

	apperrors "sales-assistant/internal/common/errors"
	"sales-assistant/internal/common/logger"
	"sales-assistant/internal/common/metrics"
	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/interpreter/queries"
)

// LoadReport summarises one load.
type LoadReport struct {
	RowsRead   int            `json:"rowsRead"`
	RowsKept   int            `json:"rowsKept"`
	Dropped    map[string]int `json:"dropped"`
	Customers  int            `json:"customers"`
	Products   int            `json:"products"`
	Invoices   int            `json:"invoices"`
	Items      int            `json:"items"`
	DurationMs int64          `json:"durationMs"`
}

func newReport() *LoadReport {
	return &LoadReport{Dropped: map[string]int{}}
}

func (r *LoadReport) drop(reason string) {
	r.Dropped[reason]++
}

// DroppedReasons returns the drop reasons in a stable order.
func (r *LoadReport) DroppedReasons() []string {
	reasons := make([]string, 0, len(r.Dropped))
	for reason := range r.Dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}

type Options struct {
	// Reset drops the view and tables before creating them.
	Reset bool
}

type Loader struct {
	db      *sql.DB
	dialect queries.Dialect
	logger  logger.Logger
}

func New(db *sql.DB, dialect queries.Dialect, log logger.Logger) *Loader {
	return &Loader{
		db:      db,
		dialect: dialect,
		logger:  log.WithFields(map[string]interface{}{"component": "loader"}),
	}
}

// Load reads the export, cleans it and writes it in a single transaction.
func (l *Loader) Load(ctx context.Context, r io.Reader, opts Options) (*LoadReport, error) {
	start := time.Now()
	report := newReport()

	records, malformed, err := ReadCSV(r)
	if err != nil {
		return nil, apperrors.NewLoadFailedError("read", err)
	}
	report.RowsRead = len(records) + len(malformed)
	for _, m := range malformed {
		report.drop(DropMalformed)
		l.logger.Debug("skipping malformed line", map[string]interface{}{"line": m.Line, "error": m.Err})
	}

	ds := Clean(records, report)

	if err := l.createSchema(ctx, opts.Reset); err != nil {
		return nil, apperrors.NewLoadFailedError("schema", err)
	}
	if err := l.insert(ctx, ds); err != nil {
		return nil, apperrors.NewLoadFailedError("insert", err)
	}

	report.Customers = len(ds.Customers)
	report.Products = len(ds.Products)
	report.Invoices = len(ds.Invoices)
	report.Items = len(ds.Items)
	report.DurationMs = time.Since(start).Milliseconds()

	metrics.LoaderRows.WithLabelValues("kept").Add(float64(report.RowsKept))
	for reason, n := range report.Dropped {
		metrics.LoaderRows.WithLabelValues(reason).Add(float64(n))
	}

	l.logger.Info("dataset loaded", map[string]interface{}{
		"rowsRead":   report.RowsRead,
		"rowsKept":   report.RowsKept,
		"dropped":    report.Dropped,
		"invoices":   report.Invoices,
		"items":      report.Items,
		"durationMs": report.DurationMs,
	})
	return report, nil
}

func (l *Loader) createSchema(ctx context.Context, reset bool) error {
	stmts, err := SchemaStatements(l.dialect)
	if err != nil {
		return err
	}
	if reset {
		stmts = append(DropStatements(), stmts...)
	}

	for _, stmt := range stmts {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func (l *Loader) insert(ctx context.Context, ds *Dataset) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	batches := map[string][][]interface{}{
		interpreter.TableCustomers:    make([][]interface{}, 0, len(ds.Customers)),
		interpreter.TableProducts:     make([][]interface{}, 0, len(ds.Products)),
		interpreter.TableInvoices:     make([][]interface{}, 0, len(ds.Invoices)),
		interpreter.TableInvoiceItems: make([][]interface{}, 0, len(ds.Items)),
	}
	for _, c := range ds.Customers {
		batches[interpreter.TableCustomers] = append(batches[interpreter.TableCustomers], []interface{}{c})
	}
	for _, p := range ds.Products {
		batches[interpreter.TableProducts] = append(batches[interpreter.TableProducts], []interface{}{p.StockCode, p.Description})
	}
	for _, inv := range ds.Invoices {
		batches[interpreter.TableInvoices] = append(batches[interpreter.TableInvoices],
			[]interface{}{inv.ID, nullable(inv.CustomerID), nullable(inv.Date), nullable(inv.Country)})
	}
	for _, it := range ds.Items {
		batches[interpreter.TableInvoiceItems] = append(batches[interpreter.TableInvoiceItems],
			[]interface{}{it.InvoiceID, it.StockCode, it.Quantity, it.Price})
	}

	for _, entity := range interpreter.Catalog() {
		if err = l.insertRows(ctx, tx, entity, batches[entity.Table]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (l *Loader) insertRows(ctx context.Context, tx *sql.Tx, entity interpreter.Entity, rows [][]interface{}) error {
	query := insertStatement(l.dialect, entity)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", entity.Table, err)
	}
	defer stmt.Close()

	for i, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", entity.Table, i+1, err)
		}
	}

	l.logger.Debug("table populated", map[string]interface{}{"table": entity.Table, "rows": len(rows)})
	return nil
}

func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func firstLine(stmt string) string {
	for i, c := range stmt {
		if c == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}
