package http

import (
	"errors"
	"net/http"

	"quiz-result-service/internal/domain"
)

// errorPayload is the body of every error response, REST or websocket.
type errorPayload struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

// classify maps service errors to an HTTP status and a stable error code.
func classify(err error) (int, errorPayload) {
	payload := errorPayload{Message: err.Error()}
	var incomplete *domain.IncompleteSubmissionError

	switch {
	case errors.As(err, &incomplete):
		payload.Code = "incomplete_submission"
		payload.Missing = incomplete.Missing
		return http.StatusUnprocessableEntity, payload
	case errors.Is(err, domain.ErrQuizNotFound):
		payload.Code = "quiz_not_found"
		return http.StatusNotFound, payload
	case errors.Is(err, domain.ErrQuizFetchFailed):
		payload.Code = "quiz_fetch_failed"
		return http.StatusBadGateway, payload
	case errors.Is(err, domain.ErrAttemptNotFound):
		payload.Code = "attempt_not_found"
		return http.StatusNotFound, payload
	case errors.Is(err, domain.ErrResultNotFound):
		payload.Code = "result_not_found"
		return http.StatusNotFound, payload
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrDuplicateAnswer):
		payload.Code = "invalid_answer"
		return http.StatusBadRequest, payload
	case errors.Is(err, domain.ErrInvalidSharingMode):
		payload.Code = "invalid_sharing_mode"
		return http.StatusBadRequest, payload
	case errors.Is(err, domain.ErrAttemptClosed):
		payload.Code = "attempt_closed"
		return http.StatusConflict, payload
	case errors.Is(err, domain.ErrFeatureUnavailable):
		payload.Code = "feature_unavailable"
		return http.StatusForbidden, payload
	case errors.Is(err, domain.ErrSubmissionFailed):
		payload.Code = "submission_failed"
		return http.StatusBadGateway, payload
	default:
		payload.Code = "internal"
		payload.Message = "internal error"
		return http.StatusInternalServerError, payload
	}
}
