package domain

import (
	"errors"
	"strings"
)

var (
	// ErrAttemptNotFound is returned when an attempt has not been started or was already submitted.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrAttemptClosed is returned when an attempt is being submitted and no longer accepts changes.
	ErrAttemptClosed = errors.New("quiz attempt is being submitted")
	// ErrResultNotFound is returned when a result id is unknown.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrQuizNotFound indicates the quiz content does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizFetchFailed indicates the quiz content could not be loaded; no scoring is possible.
	ErrQuizFetchFailed = errors.New("unable to load quiz")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrDuplicateAnswer indicates the same question was answered twice in one submission.
	ErrDuplicateAnswer = errors.New("question answered more than once")
	// ErrIncompleteSubmission is returned when scoring a partial answer set.
	ErrIncompleteSubmission = errors.New("incomplete submission")
	// ErrCatalogUnavailable marks a recommendation catalog that could not be read.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrSubmissionFailed marks a failed remote submission; the attempt is kept for retry.
	ErrSubmissionFailed = errors.New("quiz submission failed")
	// ErrInvariantViolation signals a percentage outside every classification band.
	ErrInvariantViolation = errors.New("classification invariant violated")
	// ErrInvalidSharingMode rejects unknown sharing modes.
	ErrInvalidSharingMode = errors.New("invalid sharing mode")
	// ErrFeatureUnavailable is returned when the caller's tier lacks a feature.
	ErrFeatureUnavailable = errors.New("feature not available for tier")
)

// IncompleteSubmissionError lists the questions left unanswered.
type IncompleteSubmissionError struct {
	Missing []string
}

func (e *IncompleteSubmissionError) Error() string {
	return ErrIncompleteSubmission.Error() + ": unanswered " + strings.Join(e.Missing, ", ")
}

func (e *IncompleteSubmissionError) Unwrap() error {
	return ErrIncompleteSubmission
}
