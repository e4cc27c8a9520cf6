package authgate

import (
	"errors"
	"fmt"
)

var (
	// ErrEmailAlreadyUsed indicates signup with an email that already owns an account.
	ErrEmailAlreadyUsed = errors.New("email already in use")
	// ErrInvalidCredentials indicates an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the account is under a lockout window.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountNotVerified indicates the account has not completed email verification.
	ErrAccountNotVerified = errors.New("account not verified")
	// ErrAccountDisabled indicates the account is administratively disabled.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountNotFound indicates no account matches the given identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTokenInvalid covers every token failure: malformed, expired,
	// wrong-type, revoked, or not found. Deliberately undifferentiated so
	// callers cannot probe which failure mode occurred.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrValidation indicates an input failed shape or policy checks.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a version-checked account write lost to a
	// concurrent writer; retried internally, surfaced only when retries are
	// exhausted.
	ErrConflict = errors.New("account write conflict")
	// ErrUnavailable indicates a backend failure; detail is logged
	// internally, never exposed to the caller.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady indicates an Engine method was called on a nil or
	// unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// AccountLockedError reports how long a lockout has left. It unwraps to
// [ErrAccountLocked] so errors.Is keeps working.
type AccountLockedError struct {
	MinutesRemaining int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d minutes", e.MinutesRemaining)
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}

// ValidationError reports a field-level input failure. It unwraps to
// [ErrValidation].
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
