package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		bpmnCode  string
		retryable bool
		retries   int
	}{
		{"invalid profile", NewInvalidProfileError("budget"), "INVALID_PROFILE", false, 0},
		{"schema failure maps to invalid profile", NewSchemaValidationFailedError([]string{"x"}), "INVALID_PROFILE", false, 0},
		{"not found", NewBusinessNotFoundError("nope"), "BUSINESS_NOT_FOUND", false, 0},
		{"cache", NewCacheUnavailableError(fmt.Errorf("refused")), "CACHE_UNAVAILABLE", true, 2},
		{"database", NewDatabaseConnectionFailedError(fmt.Errorf("refused")), "DATABASE_CONNECTION_FAILED", true, 3},
		{"timeout keeps its own code", NewTimeoutError("zeebe", fmt.Errorf("slow")), "TIMEOUT_ERROR", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.bpmnCode, bpmnErr.Code)
			assert.Equal(t, tt.retryable, bpmnErr.Retryable)
			assert.Equal(t, tt.retries, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.bpmnCode, vars["errorCode"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeCatalogInvalid:           "CATALOG",
		ErrCodeInvalidProfile:           "VALIDATION",
		ErrCodeInvalidFilterFormat:      "VALIDATION",
		ErrCodeSchemaValidationFailed:   "VALIDATION",
		ErrCodeBusinessNotFound:         "LOOKUP",
		ErrCodeCacheUnavailable:         "CACHE",
		ErrCodeDatabaseConnectionFailed: "DATABASE",
		ErrCodeQueryExecutionFailed:     "DATABASE",
		"TIMEOUT_ERROR":                 "OTHER",
	}
	for code, category := range tests {
		assert.Equal(t, category, GetErrorCategory(code), code)
	}
}

func TestAsStandardError_Wrapped(t *testing.T) {
	inner := NewBusinessNotFoundError("tech-repair")
	wrapped := fmt.Errorf("resolve: %w", inner)

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, stdErr)

	_, ok = AsStandardError(fmt.Errorf("plain"))
	assert.False(t, ok)
	_, ok = AsStandardError(nil)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	known := NewInvalidFilterFormatError("minMatch")
	assert.Same(t, known, Normalize(known))

	timedOut := Normalize(fmt.Errorf("score: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrorCode("TIMEOUT_ERROR"), timedOut.Code)
	assert.True(t, timedOut.Retryable)

	unknown := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), unknown.Code)
	assert.False(t, unknown.Retryable)
	assert.Equal(t, "boom", unknown.Details)
}

func TestCatalogInvalidError_CollectsProblems(t *testing.T) {
	err := NewCatalogInvalidError([]string{"duplicate title", "bad cost"})
	assert.Equal(t, "duplicate title; bad cost", err.Details)
	assert.Contains(t, err.Error(), "CATALOG_INVALID")
	assert.False(t, IsRetryableErrorCode(err.Code))
}
