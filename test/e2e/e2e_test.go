// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-assistant/internal/api"
	"sales-assistant/internal/common/camunda"
	"sales-assistant/internal/common/config"
	"sales-assistant/internal/common/database"
	"sales-assistant/internal/common/logger"
	"sales-assistant/internal/history"
	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/interpreter/queries"
	"sales-assistant/internal/loader"
	"sales-assistant/internal/models"
)

// United Kingdom 100, France 50. Customer spend 12346=60, 12347=40, 12348=25, 12349=25.
// The cancelled and zero-price lines must not count.
const exportCSV = `Invoice,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country
536365,85123A,WHITE MUG,2,2010-12-01 08:26:00,30.0,12346.0,United Kingdom
536366,85123A,WHITE MUG,4,2010-12-01 08:28:00,10.0,12347.0,United Kingdom
536367,22423,RED BOX,5,2010-12-01 08:34:00,5.0,12348.0,France
536368,22423,RED BOX,1,2010-12-01 08:35:00,25.0,12349.0,France
C536369,22423,RED BOX,-3,2010-12-01 08:40:00,25.0,12349.0,France
536370,22423,RED BOX,7,2010-12-01 08:41:00,0,12349.0,France
`

type stack struct {
	server  *httptest.Server
	history *history.Store
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sales_analysis.db")

	db, err := database.NewSQLite(ctx, dbPath)
	require.NoError(t, err)
	_, err = loader.New(db, queries.SQLite, logger.NewTestLogger(t)).Load(ctx, strings.NewReader(exportCSV), loader.Options{})
	require.NoError(t, err)
	_, err = loader.Verify(ctx, db)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
app:
  name: sales-assistant-e2e
database:
  store:
    driver: sqlite3
  sqlite:
    path: %s
  redis:
    address: %s
interpreter:
  top_customers_limit: 5
  top_products_limit: 10
history:
  enabled: true
  max_entries: 20
`, dbPath, mr.Addr())), 0o600))

	cfg, err := config.LoadFromFile(configPath)
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	it, err := interpreter.NewFromConfig(cfg, log)
	require.NoError(t, err)

	rdb := database.NewRedis(cfg.Database.Redis)
	t.Cleanup(func() { rdb.Close() })
	hist := history.New(rdb.Client, cfg.History)

	srv := api.NewServer(it, hist, log)
	srv.AddReadinessCheck("redis", rdb.Ping)
	server := httptest.NewServer(srv.Routes())
	t.Cleanup(server.Close)

	return &stack{server: server, history: hist}
}

func (s *stack) ask(t *testing.T, question string) (*models.AnswerResult, []byte) {
	t.Helper()
	body, err := json.Marshal(api.AskRequest{Question: question})
	require.NoError(t, err)

	resp, err := http.Post(s.server.URL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	var result models.AnswerResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	return &result, buf.Bytes()
}

func TestQuestionsOverHTTP(t *testing.T) {
	s := newStack(t)

	tests := []struct {
		question string
		intent   models.Intent
		rows     [][]interface{}
	}{
		{"What is total revenue?", models.IntentTotalRevenue, [][]interface{}{{150.0}}},
		{"Revenue by country", models.IntentRevenueByCountry, [][]interface{}{{"United Kingdom", 100.0}, {"France", 50.0}}},
		{"Sales in France", models.IntentRevenueInCountry, [][]interface{}{{50.0}}},
		{"Sales in the UK", models.IntentRevenueInCountry, [][]interface{}{{100.0}}},
		{"Show top 3 customers", models.IntentTopCustomers, [][]interface{}{{12346.0, 60.0}, {12347.0, 40.0}, {12348.0, 25.0}}},
		{"Best selling products", models.IntentTopProducts, [][]interface{}{{"RED BOX", 6.0}, {"WHITE MUG", 6.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			res, _ := s.ask(t, tt.question)

			require.True(t, res.Success, res.Answer)
			assert.Equal(t, tt.intent, res.Intent)
			assert.True(t, strings.HasPrefix(res.Answer, "Found it! "))
			require.NotNil(t, res.QueryTrace)
			assert.Equal(t, tt.rows, res.Rows.Rows)
		})
	}
}

func TestUnrecognizedAndIdempotent(t *testing.T) {
	s := newStack(t)

	res, _ := s.ask(t, "asdkjasd")
	assert.False(t, res.Success)
	assert.Nil(t, res.Rows)
	assert.Equal(t, models.IntentUnrecognized, res.Intent)

	_, first := s.ask(t, "Revenue by country")
	_, second := s.ask(t, "Revenue by country")
	assert.Equal(t, string(first), string(second))
}

func TestHistoryAndProbes(t *testing.T) {
	s := newStack(t)

	s.ask(t, "Total revenue")
	s.ask(t, "hello")

	resp, err := http.Get(s.server.URL + "/api/v1/history?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var hist api.HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hist))
	require.Len(t, hist.Entries, 2)
	assert.Equal(t, "hello", hist.Entries[0].Question)
	assert.Equal(t, "unrecognized", hist.Entries[0].Outcome)
	assert.Equal(t, models.IntentTotalRevenue, hist.Entries[1].Intent)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		resp, err := http.Get(s.server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

// TestZeebeTopology runs only against a live gateway, e.g. ZEEBE_ADDRESS=localhost:26500.
func TestZeebeTopology(t *testing.T) {
	addr := os.Getenv("ZEEBE_ADDRESS")
	if addr == "" {
		t.Skip("ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(config.CamundaConfig{
		BrokerAddress:  addr,
		RequestTimeout: 5000,
	}))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(ctx))
}
