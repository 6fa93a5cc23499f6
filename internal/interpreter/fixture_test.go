package interpreter

import (
	"context"
	"path/filepath"
	"testing"

	"sales-assistant/internal/common/config"
	"sales-assistant/internal/common/database"

	"github.com/stretchr/testify/require"
)

var fixtureSchema = []string{
	`CREATE TABLE customers (customer_id REAL PRIMARY KEY)`,
	`CREATE TABLE products (stock_code TEXT PRIMARY KEY, description TEXT)`,
	`CREATE TABLE invoices (
		invoice_id TEXT PRIMARY KEY,
		customer_id REAL REFERENCES customers(customer_id),
		invoice_date TIMESTAMP,
		country TEXT
	)`,
	`CREATE TABLE invoice_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id TEXT REFERENCES invoices(invoice_id),
		stock_code TEXT REFERENCES products(stock_code),
		quantity INTEGER,
		price REAL
	)`,
}

// salesFixture: United Kingdom 100, France 50. Customer spend 12346=60, 12347=40,
// 12348=25, 12349=25. Both products sold 6 units.
var salesFixture = []string{
	`INSERT INTO customers VALUES (12346), (12347), (12348), (12349)`,
	`INSERT INTO products VALUES ('85123A', 'WHITE MUG'), ('22423', 'RED BOX')`,
	`INSERT INTO invoices VALUES
		('536365', 12346, '2010-12-01 08:26:00', 'United Kingdom'),
		('536366', 12347, '2010-12-01 08:28:00', 'United Kingdom'),
		('536367', 12348, '2010-12-01 08:34:00', 'France'),
		('536368', 12349, '2010-12-01 08:35:00', 'France')`,
	`INSERT INTO invoice_items (invoice_id, stock_code, quantity, price) VALUES
		('536365', '85123A', 2, 30.0),
		('536366', '85123A', 4, 10.0),
		('536367', '22423', 5, 5.0),
		('536368', '22423', 1, 25.0)`,
}

// revenueFixture holds the two lines (2 x 10.0) and (1 x 5.0).
var revenueFixture = []string{
	`INSERT INTO customers VALUES (1)`,
	`INSERT INTO products VALUES ('A', 'ALPHA'), ('B', 'BETA')`,
	`INSERT INTO invoices VALUES ('1', 1, NULL, 'Germany')`,
	`INSERT INTO invoice_items (invoice_id, stock_code, quantity, price) VALUES
		('1', 'A', 2, 10.0),
		('1', 'B', 1, 5.0)`,
}

// newFixtureStore writes a sqlite file with the sales schema and rows and returns its store config.
func newFixtureStore(t *testing.T, rows []string) config.StoreConfig {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fixture.db")

	db, err := database.NewSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range append(append([]string{}, fixtureSchema...), rows...) {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	return config.StoreConfig{Driver: database.DriverSQLite, DSN: path}
}
