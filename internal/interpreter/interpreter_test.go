package interpreter

import (
	"context"
	"encoding/json"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"sales-assistant/internal/common/config"
	"sales-assistant/internal/common/database"
	"sales-assistant/internal/common/logger"
	"sales-assistant/internal/interpreter/queries"
	"sales-assistant/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedAsk struct {
	intent  models.Intent
	outcome string
}

type fakeRecorder struct {
	mu   sync.Mutex
	asks []recordedAsk
}

func (f *fakeRecorder) RecordAsk(_ context.Context, intent models.Intent, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asks = append(f.asks, recordedAsk{intent: intent, outcome: outcome})
}

func newFixtureInterpreter(t *testing.T, rows []string, opts ...Option) *Interpreter {
	t.Helper()
	store := newFixtureStore(t, rows)
	return New(
		NewCompiler(queries.SQLite, DefaultLimits()),
		NewExecutor(store, 5*time.Second),
		logger.NewTestLogger(t),
		opts...,
	)
}

func TestAsk_TotalRevenueRoundTrip(t *testing.T) {
	it := newFixtureInterpreter(t, revenueFixture)

	res := it.Ask(context.Background(), "What is total revenue?")

	require.True(t, res.Success, res.Answer)
	assert.Equal(t, "Found it! Calculating total global revenue.", res.Answer)
	assert.Equal(t, models.IntentTotalRevenue, res.Intent)
	require.NotNil(t, res.QueryTrace)
	assert.Contains(t, *res.QueryTrace, "SUM(quantity * price)")
	assert.Equal(t, [][]interface{}{{25.0}}, res.Rows.Rows)
}

func TestAsk_RevenueByCountryOrdering(t *testing.T) {
	it := newFixtureInterpreter(t, salesFixture)

	res := it.Ask(context.Background(), "Revenue by country")

	require.True(t, res.Success, res.Answer)
	assert.Equal(t, "Aggregating revenue by country.", res.Interpretation)
	assert.Equal(t, []string{"country", "revenue"}, res.Rows.Columns)
	assert.Equal(t, [][]interface{}{
		{"United Kingdom", 100.0},
		{"France", 50.0},
	}, res.Rows.Rows)
}

func TestAsk_RevenueInCountry(t *testing.T) {
	it := newFixtureInterpreter(t, salesFixture)

	res := it.Ask(context.Background(), "Sales in France")

	require.True(t, res.Success, res.Answer)
	assert.Equal(t, models.IntentRevenueInCountry, res.Intent)
	assert.Equal(t, "Calculating revenue for France.", res.Interpretation)
	assert.Equal(t, [][]interface{}{{50.0}}, res.Rows.Rows)

	res = it.Ask(context.Background(), "revenue in the uk")
	require.True(t, res.Success, res.Answer)
	assert.Equal(t, [][]interface{}{{100.0}}, res.Rows.Rows)
}

func TestAsk_RevenueInCountry_SubstringIsCaseSensitive(t *testing.T) {
	it := newFixtureInterpreter(t, salesFixture)

	// "Kingdom" is a substring of "United Kingdom"
	res := it.Ask(context.Background(), "sales in kingdom")
	require.True(t, res.Success, res.Answer)
	assert.Equal(t, [][]interface{}{{100.0}}, res.Rows.Rows)

	// no stored country contains "Fr Ance"; SUM over nothing is NULL
	res = it.Ask(context.Background(), "sales in fr ance")
	require.True(t, res.Success, res.Answer)
	assert.Equal(t, [][]interface{}{{nil}}, res.Rows.Rows)
}

func TestAsk_TopCustomersWithTies(t *testing.T) {
	it := newFixtureInterpreter(t, salesFixture)

	res := it.Ask(context.Background(), "Show top 3 customers")

	require.True(t, res.Success, res.Answer)
	assert.Equal(t, "Listing top 3 customers.", res.Interpretation)
	assert.Equal(t, []string{"customer_id", "total_spend"}, res.Rows.Columns)
	assert.Equal(t, [][]interface{}{
		{12346.0, 60.0},
		{12347.0, 40.0},
		{12348.0, 25.0},
	}, res.Rows.Rows)
}

func TestAsk_TopProductsTieBreak(t *testing.T) {
	it := newFixtureInterpreter(t, salesFixture)

	res := it.Ask(context.Background(), "best selling products")

	require.True(t, res.Success, res.Answer)
	assert.Equal(t, "Identifying top 10 best-selling products.", res.Interpretation)
	assert.Equal(t, [][]interface{}{
		{"RED BOX", int64(6)},
		{"WHITE MUG", int64(6)},
	}, res.Rows.Rows)
}

func TestAsk_Unrecognized(t *testing.T) {
	rec := &fakeRecorder{}
	it := newFixtureInterpreter(t, salesFixture, WithRecorder(rec))

	res := it.Ask(context.Background(), "asdkjasd")

	assert.False(t, res.Success)
	assert.Nil(t, res.Rows)
	assert.Nil(t, res.QueryTrace)
	assert.Equal(t, models.IntentUnrecognized, res.Intent)
	assert.Equal(t, "UNRECOGNIZED_QUESTION", res.ErrorCode)
	assert.Equal(t, "I didn't understand 'asdkjasd'. Try: 'Total Revenue', 'Sales in France', 'Top 5 Customers'.", res.Answer)
	assert.Equal(t, []recordedAsk{{intent: models.IntentUnrecognized, outcome: OutcomeUnrecognized}}, rec.asks)
}

func TestAsk_FallbackWhenCountryMissing(t *testing.T) {
	rec := &fakeRecorder{}
	it := newFixtureInterpreter(t, salesFixture, WithRecorder(rec))

	res := it.Ask(context.Background(), "sales in 2011")

	require.True(t, res.Success, res.Answer)
	assert.True(t, res.Fallback)
	assert.Equal(t, models.IntentTotalRevenue, res.Intent)
	assert.Equal(t, FallbackInterpretation, res.Interpretation)
	assert.Equal(t, [][]interface{}{{150.0}}, res.Rows.Rows)
	assert.Equal(t, OutcomeFallback, rec.asks[0].outcome)
}

func TestAsk_InvalidLimitNeverReachesStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	exec := NewExecutor(config.StoreConfig{}, 0).WithOpener(mockOpener(db))
	it := New(NewCompiler(queries.SQLite, DefaultLimits()), exec, logger.NewNoOpLogger())

	for _, q := range []string{"top 0 customers", "top -3 customers", "top 5000 customers"} {
		res := it.Ask(context.Background(), q)
		assert.False(t, res.Success, q)
		assert.Equal(t, "COMPILE_FAILED", res.ErrorCode, q)
		assert.Nil(t, res.QueryTrace, q)
		assert.Nil(t, res.Rows, q)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAsk_ExecutionFailureCarriesTrace(t *testing.T) {
	// schema-less store: every statement fails
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := database.NewSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	rec := &fakeRecorder{}
	it := New(
		NewCompiler(queries.SQLite, DefaultLimits()),
		NewExecutor(config.StoreConfig{Driver: database.DriverSQLite, DSN: path}, time.Second),
		logger.NewTestLogger(t),
		WithRecorder(rec),
	)

	res := it.Ask(context.Background(), "total revenue")

	assert.False(t, res.Success)
	assert.Nil(t, res.Rows)
	require.NotNil(t, res.QueryTrace)
	assert.Contains(t, *res.QueryTrace, "FROM invoice_items")
	assert.Equal(t, "QUERY_EXECUTION_FAILED", res.ErrorCode)
	assert.Contains(t, res.Answer, "no such table")
	assert.Equal(t, "Calculating total global revenue.", res.Interpretation)
	assert.Equal(t, OutcomeExecutionFailed, rec.asks[0].outcome)
}

func TestAsk_StoreUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "missing.db")
	it := New(
		NewCompiler(queries.SQLite, DefaultLimits()),
		NewExecutor(config.StoreConfig{Driver: database.DriverSQLite, DSN: "file:" + missing + "?mode=ro"}, time.Second),
		logger.NewNoOpLogger(),
	)

	res := it.Ask(context.Background(), "top customers")

	assert.False(t, res.Success)
	assert.Equal(t, "DATABASE_CONNECTION_FAILED", res.ErrorCode)
	require.NotNil(t, res.QueryTrace)
}

func TestAsk_Idempotent(t *testing.T) {
	it := newFixtureInterpreter(t, salesFixture)

	for _, q := range []string{"Show top 3 customers", "revenue by country", "asdkjasd", "sales in 2011"} {
		first, err := json.Marshal(it.Ask(context.Background(), q))
		require.NoError(t, err)
		second, err := json.Marshal(it.Ask(context.Background(), q))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second), q)
	}
}

func TestAsk_ConcurrentCallsUseSeparateHandles(t *testing.T) {
	it := newFixtureInterpreter(t, salesFixture)

	var wg sync.WaitGroup
	results := make([]*models.AnswerResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = it.Ask(context.Background(), "Sales in France")
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		require.True(t, res.Success, res.Answer)
		assert.Equal(t, [][]interface{}{{50.0}}, res.Rows.Rows)
	}
}

func TestAsk_WithRulesReplacesOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE strpos(i.country, $1) > 0")).
		WithArgs("Germany").
		WillReturnRows(sqlmock.NewRows([]string{"revenue"}).AddRow(12.5))
	mock.ExpectClose()

	exec := NewExecutor(config.StoreConfig{Driver: "postgres"}, 0).WithOpener(mockOpener(db))
	it := New(NewCompiler(queries.Postgres, DefaultLimits()), exec, logger.NewNoOpLogger(),
		WithRules([]Rule{{
			Intent: models.IntentRevenueInCountry,
			Match:  func(string) bool { return true },
		}}))

	res := it.Ask(context.Background(), "anything in germany")

	require.True(t, res.Success, res.Answer)
	assert.Equal(t, models.IntentRevenueInCountry, res.Intent)
	assert.Equal(t, [][]interface{}{{12.5}}, res.Rows.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewFromConfig(t *testing.T) {
	store := newFixtureStore(t, revenueFixture)
	cfg := &config.Config{
		Database: config.DatabaseConfig{Store: store},
		Interpreter: config.InterpreterConfig{
			TopCustomersLimit: 5,
			TopProductsLimit:  10,
			MaxLimit:          1000,
			QueryTimeout:      2000,
		},
	}

	it, err := NewFromConfig(cfg, logger.NewNoOpLogger())
	require.NoError(t, err)
	res := it.Ask(context.Background(), "how much did we sell")
	require.True(t, res.Success, res.Answer)
	assert.Equal(t, [][]interface{}{{25.0}}, res.Rows.Rows)

	cfg.Database.Store.Driver = "mysql"
	_, err = NewFromConfig(cfg, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestAsk_TracerRecordsOutcome(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	it := newFixtureInterpreter(t, salesFixture, WithTracer(provider.Tracer("test")))
	it.Ask(context.Background(), "Sales in France")
	it.Ask(context.Background(), "asdkjasd")

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "interpreter.ask", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("outcome", OutcomeSuccess))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Contains(t, spans[1].Attributes(), attribute.String("intent", string(models.IntentUnrecognized)))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestAsk_UnrecognizedIsLoggedWithCode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	it := New(
		NewCompiler(queries.SQLite, DefaultLimits()),
		NewExecutor(newFixtureStore(t, salesFixture), time.Second),
		logger.NewZapAdapter(zap.New(core)),
	)

	it.Ask(context.Background(), "asdkjasd")

	rejected := logs.FilterMessage("question not recognized").All()
	require.Len(t, rejected, 1)
	ctx := rejected[0].ContextMap()
	assert.Equal(t, "UNRECOGNIZED_QUESTION", ctx["errorCode"])
	assert.Equal(t, "question: asdkjasd", ctx["details"])
	assert.Equal(t, "unrecognized", ctx["intent"])
}
