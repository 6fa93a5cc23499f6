package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-assistant/internal/models"
)

const exportCSV = `Invoice,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country
489434,85048,GLASS BALL,2,2009-12-01 07:45:00,10.0,13085.0,United Kingdom
489435,79323P,CHERRY LIGHTS,1,2009-12-01 07:46:00,5.0,13085.0,France
C489449,22087,BUNTING,-12,2009-12-01 10:33:00,2.95,16321.0,Australia
`

func init() {
	color.NoColor = true
}

// setup writes a minimal config and the export into a temp dir.
func setup(t *testing.T) (configPath, csvPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	csvPath = filepath.Join(dir, "export.csv")
	dbPath = filepath.Join(dir, "sales.db")

	require.NoError(t, os.WriteFile(configPath, []byte("app:\n  name: salesctl-test\n"), 0o600))
	require.NoError(t, os.WriteFile(csvPath, []byte(exportCSV), 0o600))
	return configPath, csvPath, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "salesctl", cmd.Use)

	for _, name := range []string{"ask", "load", "schema"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "schema", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadThenAsk(t *testing.T) {
	configPath, csvPath, dbPath := setup(t)

	out, err := execute(t, "load", csvPath, "--config", configPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "rows read")
	assert.Contains(t, out, "dropped: cancelled")
	assert.Contains(t, out, "transactions_view")

	out, err = execute(t, "ask", "What", "is", "total", "revenue?", "--config", configPath, "--db", dbPath, "--show-query")
	require.NoError(t, err)
	assert.Contains(t, out, "Found it! Calculating total global revenue.")
	assert.Contains(t, out, "25.00")
	assert.Contains(t, out, "SUM(quantity * price)")

	out, err = execute(t, "ask", "sales in france", "--config", configPath, "--db", dbPath, "--format", "json")
	require.NoError(t, err)
	var result models.AnswerResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, models.IntentRevenueInCountry, result.Intent)
	assert.Equal(t, [][]interface{}{{5.0}}, result.Rows.Rows)
}

func TestLoad_JSONReport(t *testing.T) {
	configPath, csvPath, dbPath := setup(t)

	out, err := execute(t, "load", csvPath, "--config", configPath, "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var res struct {
		Load struct {
			RowsRead int            `json:"rowsRead"`
			RowsKept int            `json:"rowsKept"`
			Dropped  map[string]int `json:"dropped"`
		} `json:"load"`
		Verify struct {
			Tables map[string]int `json:"tables"`
		} `json:"verify"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Load.RowsRead)
	assert.Equal(t, 2, res.Load.RowsKept)
	assert.Equal(t, map[string]int{"cancelled": 1}, res.Load.Dropped)
	assert.Equal(t, 2, res.Verify.Tables["invoice_items"])
}

func TestLoad_MissingFile(t *testing.T) {
	configPath, _, dbPath := setup(t)

	_, err := execute(t, "load", filepath.Join(t.TempDir(), "absent.csv"), "--config", configPath, "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open export")
}

func TestAsk_Unrecognized(t *testing.T) {
	configPath, csvPath, dbPath := setup(t)
	_, err := execute(t, "load", csvPath, "--config", configPath, "--db", dbPath)
	require.NoError(t, err)

	out, err := execute(t, "ask", "asdkjasd", "--config", configPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "I didn't understand 'asdkjasd'.")
}

func TestSchema(t *testing.T) {
	configPath, _, _ := setup(t)

	out, err := execute(t, "schema", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "invoice_items")
	assert.Contains(t, out, "products.stock_code")

	out, err = execute(t, "schema", "--ddl", "--dialect", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS invoices")
	assert.Contains(t, out, "CREATE OR REPLACE VIEW transactions_view")

	_, err = execute(t, "schema", "--ddl", "--dialect", "oracle")
	assert.Error(t, err)

	out, err = execute(t, "schema", "--format", "json")
	require.NoError(t, err)
	var catalog []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &catalog))
	assert.Len(t, catalog, 4)
}
