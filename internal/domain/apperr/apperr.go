// Package apperr defines the structured error kinds shared across the
// application layer. Callers branch on kinds with errors.Is, never on
// message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a coarse error category that maps onto a boundary outcome
// (HTTP status, sweep accounting, log level).
type Kind int

const (
	// KindValidation marks missing or malformed caller input. No state change.
	KindValidation Kind = iota + 1
	// KindAuth marks a missing, expired, or mismatched session or ownership.
	KindAuth
	// KindNotFound marks an unknown entity id.
	KindNotFound
	// KindOracleUnavailable marks a breach-oracle transport or parse failure.
	// Absorbed at the component boundary; never a hard failure.
	KindOracleUnavailable
	// KindCodecFailure marks malformed stored ciphertext. Surfaced as an
	// empty secret, logged, never fatal.
	KindCodecFailure
	// KindStore marks persistence-layer failure. Fatal to the current
	// operation; isolated per item during sweeps.
	KindStore
)

// Error is a kinded error. It wraps an optional cause so errors.Is works
// both on the kind sentinel and on the underlying error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinel values below act as
// kind selectors for errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// E constructs a kinded error.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs a kinded error around a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Kind selectors for errors.Is. Matching is by kind only (empty Msg).
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrAuth              = &Error{Kind: KindAuth}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrOracleUnavailable = &Error{Kind: KindOracleUnavailable}
	ErrCodecFailure      = &Error{Kind: KindCodecFailure}
	ErrStore             = &Error{Kind: KindStore}
)

// Common concrete errors reused across services.
var (
	// ErrNoSession is returned when no session token is presented or the
	// token is unknown to the session store.
	ErrNoSession = E(KindAuth, "no session")
	// ErrSessionExpired is returned when the presented token exists but has
	// passed its expiry; the store record is deleted as a side effect.
	ErrSessionExpired = E(KindAuth, "session expired")
	// ErrInvalidCredentials is the shared outcome for unknown email and
	// wrong password, so login does not leak account existence.
	ErrInvalidCredentials = E(KindAuth, "invalid email or password")
)
