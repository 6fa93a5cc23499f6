// internal/interpreter/interpreter.go
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sales-assistant/internal/common/config"
	apperrors "sales-assistant/internal/common/errors"
	"sales-assistant/internal/common/logger"
	"sales-assistant/internal/interpreter/queries"
	"sales-assistant/internal/models"
)

const (
	OutcomeSuccess         = "success"
	OutcomeFallback        = "fallback"
	OutcomeUnrecognized    = "unrecognized"
	OutcomeCompileFailed   = "compile_failed"
	OutcomeExecutionFailed = "execution_failed"
)

// QueryExecutor runs a compiled statement against the store.
type QueryExecutor interface {
	Execute(ctx context.Context, q *models.CompiledQuery) (*models.Table, error)
}

// Recorder observes every answered question.
type Recorder interface {
	RecordAsk(ctx context.Context, intent models.Intent, outcome string, duration time.Duration)
}

type Option func(*Interpreter)

// WithTracer wraps every question in an "interpreter.ask" span.
func WithTracer(t trace.Tracer) Option {
	return func(it *Interpreter) {
		it.tracer = t
	}
}

// WithRules replaces the default rule order.
func WithRules(rules []Rule) Option {
	return func(it *Interpreter) {
		it.classifier = NewClassifier(rules)
	}
}

func WithRecorder(r Recorder) Option {
	return func(it *Interpreter) {
		it.recorders = append(it.recorders, r)
	}
}

// Interpreter answers free-text questions. It holds no per-call state and is safe for
// concurrent use as long as its executor is.
type Interpreter struct {
	classifier *Classifier
	compiler   *Compiler
	executor   QueryExecutor
	recorders  []Recorder
	tracer     trace.Tracer
	logger     logger.Logger
}

func New(compiler *Compiler, executor QueryExecutor, log logger.Logger, opts ...Option) *Interpreter {
	it := &Interpreter{
		classifier: NewClassifier(DefaultRules()),
		compiler:   compiler,
		executor:   executor,
		logger:     log.WithFields(map[string]interface{}{"component": "interpreter"}),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// NewFromConfig wires a compiler and a per-call executor from the service configuration.
func NewFromConfig(cfg *config.Config, log logger.Logger, opts ...Option) (*Interpreter, error) {
	dialect, err := queries.DialectFor(cfg.Database.Store.Driver)
	if err != nil {
		return nil, err
	}

	limits := Limits{
		TopCustomers: cfg.Interpreter.TopCustomersLimit,
		TopProducts:  cfg.Interpreter.TopProductsLimit,
		Max:          cfg.Interpreter.MaxLimit,
	}
	return New(
		NewCompiler(dialect, limits),
		NewExecutor(cfg.Database.ReaderConfig(), cfg.Interpreter.QueryTimeoutDuration()),
		log,
		opts...,
	), nil
}

// Ask never returns nil and never panics on bad input; every failure is reported in the result.
func (it *Interpreter) Ask(ctx context.Context, question string) *models.AnswerResult {
	start := time.Now()
	normalized := Normalize(question)
	intent := it.classifier.Classify(normalized)

	var span trace.Span
	if it.tracer != nil {
		ctx, span = it.tracer.Start(ctx, "interpreter.ask",
			trace.WithAttributes(attribute.String("question", normalized)))
		defer span.End()
	}

	log := it.logger.WithFields(map[string]interface{}{
		"requestId": uuid.NewString(),
		"intent":    string(intent),
	})

	result := it.answer(ctx, normalized, intent, log)
	outcome := OutcomeOf(result)
	duration := time.Since(start)

	for _, r := range it.recorders {
		r.RecordAsk(ctx, result.Intent, outcome, duration)
	}

	if span != nil {
		span.SetAttributes(
			attribute.String("intent", string(result.Intent)),
			attribute.String("outcome", outcome),
		)
		if !result.Success {
			span.SetStatus(codes.Error, result.ErrorCode)
		}
	}

	log.Info("question answered", map[string]interface{}{
		"outcome":    outcome,
		"rowCount":   result.Rows.RowCount(),
		"durationMs": duration.Milliseconds(),
	})

	return result
}

func (it *Interpreter) answer(ctx context.Context, normalized string, intent models.Intent, log logger.Logger) *models.AnswerResult {
	if intent == models.IntentUnrecognized {
		stdErr := apperrors.NewUnrecognizedQuestionError(normalized)
		log.Info("question not recognized", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		return &models.AnswerResult{
			Success:   false,
			Answer:    fmt.Sprintf("I didn't understand '%s'. %s", normalized, HelpMessage),
			Intent:    models.IntentUnrecognized,
			ErrorCode: string(stdErr.Code),
		}
	}

	slots, err := it.extract(normalized, intent, log)
	if err == nil {
		var compiled *models.CompiledQuery
		compiled, err = it.compiler.Compile(intent, slots)
		if err == nil {
			return it.run(ctx, compiled, log)
		}
	}

	log.Warn("question rejected before execution", map[string]interface{}{
		"errorCode": string(apperrors.ErrCodeCompileFailed),
		"error":     err,
	})
	return &models.AnswerResult{
		Success:   false,
		Answer:    fmt.Sprintf("I couldn't build a query for '%s': %v. %s", normalized, err, HelpMessage),
		Intent:    intent,
		ErrorCode: string(apperrors.ErrCodeCompileFailed),
	}
}

func (it *Interpreter) extract(normalized string, intent models.Intent, log logger.Logger) (models.SlotSet, error) {
	var slots models.SlotSet

	switch intent {
	case models.IntentRevenueInCountry:
		if country, ok := ExtractCountry(normalized); ok {
			slots.Country = &country
		} else {
			stdErr := apperrors.NewExtractionAmbiguousError("country", normalized)
			log.Warn("falling back to total revenue", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
			})
		}

	case models.IntentTopCustomers:
		limit, err := ExtractLimit(normalized, it.compiler.Limits().TopCustomers)
		if err != nil {
			return slots, err
		}
		slots.Limit = &limit
	}

	return slots, nil
}

func (it *Interpreter) run(ctx context.Context, compiled *models.CompiledQuery, log logger.Logger) *models.AnswerResult {
	trace := compiled.SQL

	table, err := it.executor.Execute(ctx, compiled)
	if err != nil {
		code := executionErrorCode(err)
		log.Error("query execution failed", map[string]interface{}{
			"errorCode": string(code),
			"error":     err,
		})
		return &models.AnswerResult{
			Success:        false,
			Answer:         fmt.Sprintf("I tried to run the query but it failed: %v", err),
			Interpretation: compiled.Interpretation,
			Intent:         compiled.Intent,
			Fallback:       compiled.Fallback,
			QueryTrace:     &trace,
			ErrorCode:      string(code),
		}
	}

	return &models.AnswerResult{
		Success:        true,
		Answer:         "Found it! " + compiled.Interpretation,
		Interpretation: compiled.Interpretation,
		Intent:         compiled.Intent,
		Fallback:       compiled.Fallback,
		QueryTrace:     &trace,
		Rows:           table,
	}
}

func executionErrorCode(err error) apperrors.ErrorCode {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return apperrors.ErrCodeDatabaseConnectionFailed
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.ErrCodeQueryTimeout
	}
	return apperrors.ErrCodeQueryExecutionFailed
}

// OutcomeOf classifies a result for metrics and history.
func OutcomeOf(r *models.AnswerResult) string {
	switch {
	case r.Success && r.Fallback:
		return OutcomeFallback
	case r.Success:
		return OutcomeSuccess
	case r.ErrorCode == string(apperrors.ErrCodeUnrecognizedQuestion):
		return OutcomeUnrecognized
	case r.ErrorCode == string(apperrors.ErrCodeCompileFailed):
		return OutcomeCompileFailed
	}
	return OutcomeExecutionFailed
}
