package services

import (
	"errors"
	"fmt"
)

// Client-facing failures of the verification lifecycle. Every one of
// them leaves the caller with a clear next action; none is fatal to the
// process.
var (
	// ErrNotFound: no active record matches the lookup key.
	ErrNotFound = errors.New("no verification code found, request a new one")
	// ErrExpired: the code window has passed; the record is now terminal.
	ErrExpired = errors.New("verification code has expired, request a new one")
	// ErrTooManyAttempts: the attempt ceiling was reached; the record is locked.
	ErrTooManyAttempts = errors.New("too many failed attempts, request a new code")
	// ErrInvalidToken: continuation token missing, malformed, wrong stage or
	// signature-invalid. Deliberately generic so callers cannot tell which
	// check failed.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrSessionExpired: the second-stage reset window has passed.
	ErrSessionExpired = errors.New("reset session has expired, restart the flow")
	// ErrInvalidState: the record exists but is not in the stage the
	// operation expects.
	ErrInvalidState = errors.New("reset request is no longer valid")
	// ErrTooManyRequests: a new code was requested inside the cooldown window.
	ErrTooManyRequests = errors.New("a code was sent recently, wait before requesting another")
	// ErrAccountNotFound: the owning account disappeared mid-flow.
	ErrAccountNotFound = errors.New("no account found with this email address")
	// ErrDeliveryFailed: the email notifier failed; the issued code stays valid.
	ErrDeliveryFailed = errors.New("failed to send verification email")
)

// InvalidCodeError is a code mismatch that has not yet locked the
// record. RemainingAttempts is 0 on the locking attempt.
type InvalidCodeError struct {
	RemainingAttempts int
}

func (e *InvalidCodeError) Error() string {
	if e.RemainingAttempts > 0 {
		return fmt.Sprintf("invalid verification code, %d attempts remaining", e.RemainingAttempts)
	}
	return "invalid verification code, maximum attempts exceeded, request a new code"
}
