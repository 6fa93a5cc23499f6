package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"malformed payload throws parse error", NewInvalidRequestError("question is required"), "PARSE_ERROR", 0},
		{"store unavailable retries", NewDatabaseConnectionFailedError(fmt.Errorf("dial tcp: refused")), "DATABASE_CONNECTION_FAILED", 3},
		{"timeout retries twice", NewQueryTimeoutError("top_customers"), "QUERY_TIMEOUT", 2},
		{"compile failure is final", NewCompileFailedError("top_customers", fmt.Errorf("limit 0")), "COMPILE_FAILED", 0},
		{"engine rejection keeps its code", NewWorkflowEngineError("complete", fmt.Errorf("NOT_FOUND"), false), "WORKFLOW_ENGINE_REJECTED", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)

			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.wantCode, vars["errorCode"])
			assert.Equal(t, tt.err.Retryable, vars["retryable"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "INTERPRETATION", GetErrorCategory(ErrCodeUnrecognizedQuestion))
	assert.Equal(t, "INTERPRETATION", GetErrorCategory(ErrCodeExtractionAmbiguous))
	assert.Equal(t, "COMPILATION", GetErrorCategory(ErrCodeCompileFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "LOADER", GetErrorCategory(ErrCodeDataQuality))
	assert.Equal(t, "HISTORY", GetErrorCategory(ErrCodeHistoryFailed))
	assert.Equal(t, "WORKFLOW_ENGINE", GetErrorCategory(ErrCodeWorkflowEngineUnavailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRequest))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeHistoryFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeWorkflowEngineUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeUnrecognizedQuestion))
	assert.False(t, IsRetryableErrorCode(ErrCodeDataQuality))
}

func TestNormalize(t *testing.T) {
	stdErr := NewLoadFailedError("insert", fmt.Errorf("disk full"))
	assert.Same(t, stdErr, Normalize(stdErr))

	plain := Normalize(fmt.Errorf("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestNewWorkflowEngineError(t *testing.T) {
	err := NewWorkflowEngineError("topology", fmt.Errorf("unavailable"), true)

	assert.Equal(t, ErrCodeWorkflowEngineUnavailable, err.Code)
	assert.True(t, err.Retryable)
	assert.Equal(t, "topology", err.Metadata["operation"])
	assert.Equal(t, "StandardError[WORKFLOW_ENGINE_UNAVAILABLE]: Workflow engine unavailable", err.Error())
}
