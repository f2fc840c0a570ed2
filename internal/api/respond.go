package api

import (
	"encoding/json"
	"net/http"

	"admission-stories/internal/common/errors"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err and returns the status used.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	stdErr := errors.Normalize(err)
	status := statusFor(stdErr)
	if status >= http.StatusInternalServerError {
		s.log.Error("request error", map[string]interface{}{
			"path":      r.URL.Path,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
	writeJSON(w, status, map[string]errorBody{"error": {
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Retryable: stdErr.Retryable,
	}})
	return status
}

func statusFor(e *errors.StandardError) int {
	switch e.Code {
	case errors.ErrCodeStoryNotFound, errors.ErrCodeResourceNotFound:
		return http.StatusNotFound
	case errors.ErrCodeForbiddenAction:
		return http.StatusForbidden
	case errors.ErrCodeInvalidSearchInput, errors.ErrCodeInvalidModerationInput:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidTransition:
		return http.StatusConflict
	case errors.ErrCodeSearchIndexDisabled:
		return http.StatusServiceUnavailable
	}
	if e.Retryable {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
