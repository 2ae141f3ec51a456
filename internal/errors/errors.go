package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the authorization core. Store and engine
// operations return these (possibly wrapped); the HTTP layer maps them to
// responses.
var (
	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Authentication errors
	ErrInvalidUser     = errors.New("invalid user")
	ErrInvalidPassword = errors.New("invalid password")
	ErrTooManyAttempts = errors.New("too many authentication attempts")

	// Request errors
	ErrMissingParameter = errors.New("missing parameter")

	// Redemption errors. Every failure on the code redemption path is an
	// ErrInvalidGrant so callers cannot tell which check failed.
	ErrInvalidGrant = errors.New("invalid grant")

	// Token errors
	ErrTokenExpired = errors.New("token expired")

	// Security incidents
	ErrSessionReplayDetected = errors.New("session replay detected")
)

// MissingParameterError names the first required parameter that was absent.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter %s", e.Name)
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// MissingParameter returns a *MissingParameterError for name.
func MissingParameter(name string) error {
	return &MissingParameterError{Name: name}
}

// InvalidGrantError carries the client-facing reason for a failed redemption.
// Reasons are deliberately coarse ("code not found", "validation failed").
type InvalidGrantError struct {
	Reason string
}

func (e *InvalidGrantError) Error() string {
	return e.Reason
}

func (e *InvalidGrantError) Is(target error) bool {
	return target == ErrInvalidGrant
}

// InvalidGrant returns an *InvalidGrantError with the given reason.
func InvalidGrant(reason string) error {
	return &InvalidGrantError{Reason: reason}
}

// SessionReplayError identifies the identity implicated by a replayed or
// forged session.
type SessionReplayError struct {
	IdentityID string
	SessionID  string
}

func (e *SessionReplayError) Error() string {
	return fmt.Sprintf("session replay detected for session %s", e.SessionID)
}

func (e *SessionReplayError) Is(target error) bool {
	return target == ErrSessionReplayDetected
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
