package loader

import (
	"fmt"
	"strings"

	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/interpreter/queries"
)

// ViewTransactions flattens invoice lines back into the shape of the source export.
const ViewTransactions = "transactions_view"

const transactionsViewBody = `SELECT
    i.invoice_id,
    ii.stock_code,
    p.description,
    ii.quantity,
    i.invoice_date,
    ii.price,
    i.customer_id,
    i.country
FROM invoice_items ii
JOIN invoices i ON ii.invoice_id = i.invoice_id
JOIN products p ON ii.stock_code = p.stock_code`

var columnTypes = map[queries.Dialect]map[interpreter.ColumnType]string{
	queries.Postgres: {
		interpreter.ColumnText:      "TEXT",
		interpreter.ColumnReal:      "DOUBLE PRECISION",
		interpreter.ColumnInteger:   "INTEGER",
		interpreter.ColumnTimestamp: "TIMESTAMP",
		interpreter.ColumnSerial:    "SERIAL",
	},
	queries.SQLite: {
		interpreter.ColumnText:      "TEXT",
		interpreter.ColumnReal:      "REAL",
		interpreter.ColumnInteger:   "INTEGER",
		interpreter.ColumnTimestamp: "TIMESTAMP",
		interpreter.ColumnSerial:    "INTEGER",
	},
}

// SchemaStatements renders the catalog as CREATE statements, tables in dependency order
// followed by the transactions view.
func SchemaStatements(d queries.Dialect) ([]string, error) {
	types, ok := columnTypes[d]
	if !ok {
		return nil, fmt.Errorf("%w: %s", queries.ErrUnsupportedDialect, d)
	}

	catalog := interpreter.Catalog()
	stmts := make([]string, 0, len(catalog)+1)
	for _, entity := range catalog {
		stmts = append(stmts, createTable(d, types, entity))
	}

	if d == queries.Postgres {
		stmts = append(stmts, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS\n%s", ViewTransactions, transactionsViewBody))
	} else {
		stmts = append(stmts, fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS\n%s", ViewTransactions, transactionsViewBody))
	}
	return stmts, nil
}

// DropStatements removes the view and tables in reverse dependency order.
func DropStatements() []string {
	catalog := interpreter.Catalog()
	stmts := []string{fmt.Sprintf("DROP VIEW IF EXISTS %s", ViewTransactions)}
	for i := len(catalog) - 1; i >= 0; i-- {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s", catalog[i].Table))
	}
	return stmts
}

func createTable(d queries.Dialect, types map[interpreter.ColumnType]string, entity interpreter.Entity) string {
	var defs, foreignKeys []string
	for _, col := range entity.Columns {
		def := col.Name + " " + types[col.Type]
		switch {
		case col.PrimaryKey && col.Type == interpreter.ColumnSerial && d == queries.SQLite:
			def += " PRIMARY KEY AUTOINCREMENT"
		case col.PrimaryKey:
			def += " PRIMARY KEY"
		case !col.Nullable:
			def += " NOT NULL"
		}
		defs = append(defs, def)

		if col.References != "" {
			table, column, _ := strings.Cut(col.References, ".")
			foreignKeys = append(foreignKeys, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", col.Name, table, column))
		}
	}

	lines := append(defs, foreignKeys...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", entity.Table, strings.Join(lines, ",\n    "))
}

// insertStatement renders a parameter-bound INSERT for every non-serial column of entity.
func insertStatement(d queries.Dialect, entity interpreter.Entity) string {
	var cols, placeholders []string
	for _, col := range entity.Columns {
		if col.Type == interpreter.ColumnSerial {
			continue
		}
		cols = append(cols, col.Name)
		placeholders = append(placeholders, d.Placeholder(len(cols)))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entity.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
}
