package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name          string
		err           *StandardError
		expectedCode  string
		expectedRetry int
	}{
		{
			name:          "retryable database error keeps its retries",
			err:           NewCandidateFetchFailedError(stderrors.New("connection refused")),
			expectedCode:  "CANDIDATE_FETCH_FAILED",
			expectedRetry: 3,
		},
		{
			name:          "moderation errors collapse onto one BPMN code",
			err:           NewInvalidTransitionError("approve", "DRAFT"),
			expectedCode:  "MODERATION_REJECTED",
			expectedRetry: 0,
		},
		{
			name:          "unmapped code falls back to itself",
			err:           NewBusinessRuleError("nope", ""),
			expectedCode:  "BUSINESS_RULE_VIOLATION",
			expectedRetry: 0,
		},
		{
			name: "non-retryable override wins over code default",
			err: func() *StandardError {
				e := NewDatabaseUpdateFailedError(stderrors.New("x"))
				e.Retryable = false
				return e
			}(),
			expectedCode:  "DATABASE_UPDATE_FAILED",
			expectedRetry: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)

			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetry, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.err.Message, vars["errorMessage"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewStoryNotFoundError(17))

	assert.Equal(t, int64(17), bpmnErr.ToErrorVariables()["storyId"])
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("moderate: %w", NewForbiddenActionError("approve", "AUTHOR"))
	assert.Equal(t, ErrCodeForbiddenAction, Normalize(wrapped).Code)

	timeout := fmt.Errorf("query: %w", context.DeadlineExceeded)
	got := Normalize(timeout)
	assert.Equal(t, ErrCodeTimeout, got.Code)
	assert.True(t, got.Retryable)

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.False(t, plain.Retryable)
	assert.Equal(t, "boom", plain.Details)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewStoryNotFoundError(3))

	assert.True(t, HasCode(err, ErrCodeStoryNotFound))
	assert.False(t, HasCode(err, ErrCodeForbiddenAction))
	assert.False(t, HasCode(stderrors.New("x"), ErrCodeStoryNotFound))

	stdErr, ok := AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, "StandardError[STORY_NOT_FOUND]: Story not found", stdErr.Error())
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "MODERATION", GetErrorCategory(ErrCodeInvalidTransition))
	assert.Equal(t, "MODERATION", GetErrorCategory(ErrCodeForbiddenAction))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeCandidateFetchFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexUpdateFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeStoryNotFound))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeSearchQueryFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeStoryNotFound))
}
