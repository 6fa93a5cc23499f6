// internal/interpreter/executor.go
package interpreter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sales-assistant/internal/common/config"
	"sales-assistant/internal/common/database"
	"sales-assistant/internal/models"
)

var (
	ErrStoreUnavailable = errors.New("DATABASE_CONNECTION_FAILED")
	ErrQueryExecution   = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout     = errors.New("QUERY_TIMEOUT")
)

// OpenFunc opens a store handle owned by a single Execute call.
type OpenFunc func(ctx context.Context, store config.StoreConfig) (*sql.DB, error)

// Executor runs compiled statements, opening a fresh handle per call and closing it
// before returning on every path.
type Executor struct {
	store   config.StoreConfig
	timeout time.Duration
	open    OpenFunc
}

func NewExecutor(store config.StoreConfig, timeout time.Duration) *Executor {
	return &Executor{
		store:   store,
		timeout: timeout,
		open:    database.Open,
	}
}

// WithOpener replaces how handles are acquired. Tests use it to inject sqlmock.
func (e *Executor) WithOpener(open OpenFunc) *Executor {
	e.open = open
	return e
}

func (e *Executor) Execute(ctx context.Context, q *models.CompiledQuery) (*models.Table, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil query", ErrQueryExecution)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	db, err := e.open(ctx, e.store)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, e.wrap(ctx, err)
	}
	defer rows.Close()

	table, err := scanTable(rows)
	if err != nil {
		return nil, e.wrap(ctx, err)
	}
	return table, nil
}

func (e *Executor) wrap(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: exceeded %s", ErrQueryTimeout, e.timeout)
	}
	return fmt.Errorf("%w: %v", ErrQueryExecution, err)
}

func scanTable(rows *sql.Rows) (*models.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	table := &models.Table{Columns: columns, Rows: [][]interface{}{}}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}

	return table, rows.Err()
}
