package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Xero integration service
var (
	// Authorization errors
	ErrNotAuthorized = errors.New("tenant not authorized")
	ErrCallback      = errors.New("authorization callback failed")

	// Token exchange errors
	ErrExchangeFailed   = errors.New("token exchange failed")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrResolutionFailed = errors.New("tenant resolution failed")

	// Storage errors
	ErrStorageCorrupt = errors.New("token storage corrupt")
	ErrNotFound       = errors.New("not found")

	// General errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInternal      = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
