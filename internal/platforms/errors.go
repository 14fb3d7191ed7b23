package platforms

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError marks a failure that is expected to clear on retry: network
// timeouts, HTTP 5xx, and quota throttling.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient fetch error (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient fetch error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix: malformed query,
// resource gone, comments disabled. The record or page is skipped, the run
// continues.
type PermanentError struct {
	Status int
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("permanent fetch error (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("permanent fetch error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// AuthError is fatal for the platform: the whole run for that platform
// aborts.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth error: %v", e.Err) }

func (e *AuthError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// ErrorFromStatus maps an HTTP status to the adapter error taxonomy.
// Adapters with richer error bodies (e.g. YouTube quota reasons) classify
// before falling back to this.
func ErrorFromStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return &TransientError{Status: status, Err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Err: fmt.Errorf("HTTP %d: %w", status, err)}
	default:
		return &PermanentError{Status: status, Err: err}
	}
}
