package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested resource doesn't exist
var ErrNotFound = errors.New("resource not found")

// ErrInvalidInput is returned when the provided input is invalid
var ErrInvalidInput = errors.New("invalid input")

// ErrRemoteCallFailed is returned when a call to the brightness service did not
// complete: the connection was lost, the service is absent or the reply was malformed.
var ErrRemoteCallFailed = errors.New("remote call failed")

// ErrServiceUnavailable is returned when the brightness service object can't be reached.
// Errors carrying it also match ErrRemoteCallFailed.
var ErrServiceUnavailable = errors.New("service unavailable")

// ErrUnknownAction is returned for key actions nobody registered
var ErrUnknownAction = errors.New("unknown action")

// WrapErrorf wraps an error with additional context using fmt.Errorf
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsNotFound returns true if the error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if the error is or wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRemoteCallFailed returns true if the error is or wraps ErrRemoteCallFailed
func IsRemoteCallFailed(err error) bool {
	return errors.Is(err, ErrRemoteCallFailed)
}

// IsServiceUnavailable returns true if the error is or wraps ErrServiceUnavailable
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsUnknownAction returns true if the error is or wraps ErrUnknownAction
func IsUnknownAction(err error) bool {
	return errors.Is(err, ErrUnknownAction)
}

// NotFoundf returns a formatted ErrNotFound error
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// InvalidInputf returns a formatted ErrInvalidInput error
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// RemoteCallFailedf wraps cause (may be nil) as an ErrRemoteCallFailed.
func RemoteCallFailedf(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%s: %w", msg, ErrRemoteCallFailed)
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrRemoteCallFailed, cause)
}

// ServiceUnavailablef wraps cause (may be nil) as both ErrServiceUnavailable and ErrRemoteCallFailed.
func ServiceUnavailablef(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%s: %w: %w", msg, ErrServiceUnavailable, ErrRemoteCallFailed)
	}
	return fmt.Errorf("%s: %w: %w: %w", msg, ErrServiceUnavailable, ErrRemoteCallFailed, cause)
}

// UnknownActionf returns a formatted ErrUnknownAction error
func UnknownActionf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnknownAction)...)
}
