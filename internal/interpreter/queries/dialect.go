// internal/interpreter/queries/dialect.go
package queries

import (
	"fmt"
	"strconv"
)

// Dialect renders the few SQL fragments that differ between supported stores.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// DialectFor maps a database/sql driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case Postgres, SQLite:
		return Dialect(driver), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, driver)
}

// Placeholder returns the n-th (1-based) bind placeholder.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Contains renders a case-sensitive substring test of column against bind parameter n.
// LIKE is avoided: it is case-insensitive on sqlite and treats % and _ in user text as wildcards.
func (d Dialect) Contains(column string, n int) string {
	if d == Postgres {
		return fmt.Sprintf("strpos(%s, %s) > 0", column, d.Placeholder(n))
	}
	return fmt.Sprintf("instr(%s, %s) > 0", column, d.Placeholder(n))
}
