package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrResultNotFound        = errors.New("quiz result not found")
	ErrUsernameTaken         = errors.New("username already taken")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrForbidden             = errors.New("forbidden")
	ErrInsufficientQuestions = errors.New("not enough questions match the criteria")
)

// Session lifecycle errors.
var (
	ErrSessionStarted     = errors.New("session already started")
	ErrSessionNotActive   = errors.New("session is not in progress")
	ErrSessionNotTerminal = errors.New("session has not ended")
	ErrAlreadyFinished    = errors.New("session already finished")
	ErrInvalidIndex       = errors.New("invalid question index")
	ErrInvalidOption      = errors.New("invalid option label")
	ErrNothingToRecord    = errors.New("abandoned session has no result")
	ErrTimeExpired        = errors.New("time budget exhausted")
)

// ValidationError reports a single rejected input field. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
