// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "sales-assistant/internal/common/errors"
	"sales-assistant/internal/common/logger"
	"sales-assistant/internal/common/validation"
	"sales-assistant/internal/history"
	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/models"
)

const maxBodyBytes = 64 << 10

// Asker is the interpreter entry point.
type Asker interface {
	Ask(ctx context.Context, question string) *models.AnswerResult
}

// HistoryStore records and lists recent questions.
type HistoryStore interface {
	Record(ctx context.Context, question string, intent models.Intent, outcome string) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type AskRequest struct {
	Question string `json:"question"`
}

type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

type errorResponse struct {
	Error *apperrors.StandardError `json:"error"`
}

type Server struct {
	asker       Asker
	history     HistoryStore
	checks      map[string]ReadinessCheck
	askSchema   *validation.Validator
	querySchema *validation.Validator
	logger      logger.Logger
}

// NewServer builds the HTTP surface. hist may be nil when question history is disabled.
func NewServer(asker Asker, hist HistoryStore, log logger.Logger) *Server {
	return &Server{
		asker:       asker,
		history:     hist,
		checks:      map[string]ReadinessCheck{},
		askSchema:   validation.MustValidator(validation.AskRequestSchema),
		querySchema: validation.MustValidator(validation.HistoryQuerySchema),
		logger:      log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// AddReadinessCheck registers a dependency probed by /ready.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/ask", s.handleAsk)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.withRequestLogging(mux)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	result, err := s.askSchema.ValidateBytes(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	if !result.Valid {
		stdErr := apperrors.NewInvalidRequestError("request does not match schema")
		stdErr.Metadata = map[string]interface{}{"errors": result.GetErrorMessages()}
		s.writeError(w, http.StatusBadRequest, stdErr)
		return
	}

	var req AskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	answer := s.asker.Ask(r.Context(), req.Question)

	if s.history != nil {
		if err := s.history.Record(r.Context(), req.Question, answer.Intent, interpreter.OutcomeOf(answer)); err != nil {
			s.logger.Warn("failed to record question history", map[string]interface{}{"error": err})
		}
	}

	s.writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, apperrors.NewInvalidRequestError("question history is disabled"))
		return
	}

	query := map[string]interface{}{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, apperrors.NewInvalidRequestError("limit must be an integer"))
			return
		}
		query["limit"] = limit
	}

	result, err := s.querySchema.ValidateGo(query)
	if err != nil || !result.Valid {
		stdErr := apperrors.NewInvalidRequestError("invalid history query")
		if result != nil {
			stdErr.Metadata = map[string]interface{}{"errors": result.GetErrorMessages()}
		}
		s.writeError(w, http.StatusBadRequest, stdErr)
		return
	}

	limit, _ := query["limit"].(int)
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, apperrors.Normalize(err))
		return
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	s.writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, stdErr *apperrors.StandardError) {
	s.writeJSON(w, status, errorResponse{Error: stdErr})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("http request", map[string]interface{}{
			"requestId":  requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}
