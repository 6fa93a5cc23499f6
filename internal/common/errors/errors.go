// Package errors provides standardized error handling for the sales question pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeExtractionAmbiguous  ErrorCode = "EXTRACTION_AMBIGUOUS"
	ErrCodeUnrecognizedQuestion ErrorCode = "UNRECOGNIZED_QUESTION"
	ErrCodeCompileFailed        ErrorCode = "COMPILE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeDataQuality   ErrorCode = "DATA_QUALITY"
	ErrCodeLoadFailed    ErrorCode = "LOAD_FAILED"
	ErrCodeHistoryFailed ErrorCode = "HISTORY_FAILED"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowEngineRejected    ErrorCode = "WORKFLOW_ENGINE_REJECTED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewExtractionAmbiguousError records that a slot-dependent intent matched but its slot could not be read.
func NewExtractionAmbiguousError(slot, question string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionAmbiguous,
		Message:   "Could not extract a usable value for slot",
		Details:   fmt.Sprintf("slot: %s, question: %s", slot, question),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnrecognizedQuestionError creates a non-retryable error for questions no rule matched.
func NewUnrecognizedQuestionError(question string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnrecognizedQuestion,
		Message:   "Question did not match any supported intent",
		Details:   fmt.Sprintf("question: %s", question),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompileFailedError creates a non-retryable error for intents whose slots cannot be bound.
func NewCompileFailedError(intent string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompileFailed,
		Message:   "Query could not be compiled",
		Details:   fmt.Sprintf("intent: %s, error: %s", intent, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(intent string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("intent: %s, error: %s", intent, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(intent string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("intent: %s", intent),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable error for malformed inbound payloads.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request payload",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataQualityError reports broken references or invalid rows found while loading.
func NewDataQualityError(details string, metadata map[string]interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataQuality,
		Message:   "Dataset failed integrity checks",
		Details:   details,
		Retryable: false,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// NewLoadFailedError wraps a failure while writing the dataset to the store.
func NewLoadFailedError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLoadFailed,
		Message:   "Dataset load failed",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryFailedError wraps a Redis failure in the question history.
func NewHistoryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryFailed,
		Message:   "Question history unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowEngineError wraps a failed Zeebe gateway call. Transport failures are retryable,
// rejections are not.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	code := ErrCodeWorkflowEngineRejected
	message := "Workflow engine rejected the request"
	if retryable {
		code = ErrCodeWorkflowEngineUnavailable
		message = "Workflow engine unavailable"
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   err.Error(),
		Retryable: retryable,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeExtractionAmbiguous:      "EXTRACTION_AMBIGUOUS",
	ErrCodeUnrecognizedQuestion:     "UNRECOGNIZED_QUESTION",
	ErrCodeCompileFailed:            "COMPILE_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeInvalidRequest:           "PARSE_ERROR",
	ErrCodeDataQuality:              "DATA_QUALITY",
	ErrCodeLoadFailed:               "LOAD_FAILED",
	ErrCodeHistoryFailed:            "HISTORY_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeLoadFailed,
		ErrCodeHistoryFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "UNRECOGNIZED"):
		return "INTERPRETATION"
	case strings.Contains(codeStr, "COMPILE"):
		return "COMPILATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "DATA_QUALITY") || strings.Contains(codeStr, "LOAD"):
		return "LOADER"
	case strings.Contains(codeStr, "HISTORY"):
		return "HISTORY"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW_ENGINE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
