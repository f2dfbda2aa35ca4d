package core

import "errors"

// Error codes for client-visible failures.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeAuthConflict   = "auth_conflict"
	ErrCodeStorageFailure = "storage_failure"
	ErrCodeGuestOnly      = "guest_only"
)

// Client-visible texts.
const (
	msgSignUpOrLogin     = "Please sign up or login."
	msgCredentials       = "Nickname and key required."
	msgIncorrectKey      = "Incorrect key."
	msgSignupFailed      = "Signup failed."
	msgGuestNicknameTmpl = "Nickname cannot start with %q."
)

// ErrNoStore is returned by hub operations that need storage when none is configured.
var ErrNoStore = errors.New("no store configured")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
