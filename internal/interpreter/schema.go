// internal/interpreter/schema.go
package interpreter

// ColumnType is the portable type of a catalog column. Each store maps it to its own DDL type.
type ColumnType string

const (
	ColumnText      ColumnType = "text"
	ColumnReal      ColumnType = "real"
	ColumnInteger   ColumnType = "integer"
	ColumnTimestamp ColumnType = "timestamp"
	ColumnSerial    ColumnType = "serial"
)

// Column describes one column. References is "table.column" for foreign keys.
type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	PrimaryKey bool       `json:"primaryKey,omitempty"`
	Nullable   bool       `json:"nullable,omitempty"`
	References string     `json:"references,omitempty"`
}

// Entity is one of the four tables the interpreter aggregates over.
type Entity struct {
	Name    string   `json:"name"`
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

const (
	TableCustomers    = "customers"
	TableProducts     = "products"
	TableInvoices     = "invoices"
	TableInvoiceItems = "invoice_items"
)

// Catalog returns the schema in dependency order: referenced tables come first.
func Catalog() []Entity {
	return []Entity{
		{
			Name:  "customer",
			Table: TableCustomers,
			Columns: []Column{
				{Name: "customer_id", Type: ColumnReal, PrimaryKey: true},
			},
		},
		{
			Name:  "product",
			Table: TableProducts,
			Columns: []Column{
				{Name: "stock_code", Type: ColumnText, PrimaryKey: true},
				{Name: "description", Type: ColumnText, Nullable: true},
			},
		},
		{
			Name:  "invoice",
			Table: TableInvoices,
			Columns: []Column{
				{Name: "invoice_id", Type: ColumnText, PrimaryKey: true},
				{Name: "customer_id", Type: ColumnReal, Nullable: true, References: "customers.customer_id"},
				{Name: "invoice_date", Type: ColumnTimestamp, Nullable: true},
				{Name: "country", Type: ColumnText, Nullable: true},
			},
		},
		{
			Name:  "invoice line",
			Table: TableInvoiceItems,
			Columns: []Column{
				{Name: "id", Type: ColumnSerial, PrimaryKey: true},
				{Name: "invoice_id", Type: ColumnText, References: "invoices.invoice_id"},
				{Name: "stock_code", Type: ColumnText, References: "products.stock_code"},
				{Name: "quantity", Type: ColumnInteger},
				{Name: "price", Type: ColumnReal},
			},
		},
	}
}

// Lookup finds an entity by table name.
func Lookup(table string) (Entity, bool) {
	for _, e := range Catalog() {
		if e.Table == table {
			return e, true
		}
	}
	return Entity{}, false
}
