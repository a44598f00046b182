package services

import "errors"

// UserFacingError is an error whose message is safe to show to the
// player verbatim: validation failures, denials, and not-found cases.
// Store and other internal errors never use this type; handlers render
// those as a generic retry message and log the detail server-side.
type UserFacingError struct {
	Message string
}

func (e *UserFacingError) Error() string {
	return e.Message
}

// UserError creates a user-facing error with the given message
func UserError(message string) error {
	return &UserFacingError{Message: message}
}

// UserMessage extracts the user-facing message from an error, if it has one
func UserMessage(err error) (string, bool) {
	var userErr *UserFacingError
	if errors.As(err, &userErr) {
		return userErr.Message, true
	}
	return "", false
}
