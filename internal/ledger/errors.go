package ledger

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrAlreadyCompleted   = errors.New("task already completed")
	ErrNotAssigned        = errors.New("task is not assigned to this user")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRewardUnavailable  = errors.New("reward is not available")
	ErrInvalidCode        = errors.New("invalid invite code")
	ErrNotFound           = errors.New("not found")
)

// ErrSuggestionResolved is returned when a suggestion that already left the
// pending state is resolved again. It also matches ErrValidation.
var ErrSuggestionResolved = &ValidationError{Field: "status", Message: "suggestion already resolved"}

// ValidationError describes malformed input. errors.Is(err, ErrValidation)
// reports true for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
