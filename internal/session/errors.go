package session

import (
	"errors"
	"fmt"
)

// ===== SESSION ERRORS =====

var (
	ErrExamIDRequired  = errors.New("exam id is required")
	ErrExamLoadFailed  = errors.New("exam could not be loaded")
	ErrSessionNotFound = errors.New("session not found")

	ErrSessionNotActive = errors.New("session is not active")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrSubmissionFailed = errors.New("submission failed")

	ErrInvalidQuestionIndex     = errors.New("question index out of range")
	ErrExitConfirmationRequired = errors.New("leaving an active session requires confirmation")
)

// ConfirmationRequiredError halts a manual submit while questions remain
// unanswered; the caller must confirm explicitly before submission proceeds.
type ConfirmationRequiredError struct {
	Unanswered int `json:"unanswered"`
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("submission requires confirmation: %d questions unanswered", e.Unanswered)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsConflict checks if error represents a state conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrSubmitInFlight) ||
		errors.Is(err, ErrSessionNotActive)
}

// IsConfirmationRequired checks if error carries a pending confirmation step
func IsConfirmationRequired(err error) bool {
	var cre *ConfirmationRequiredError
	return errors.As(err, &cre) || errors.Is(err, ErrExitConfirmationRequired)
}
