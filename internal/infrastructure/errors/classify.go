package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Win32 error numbers that map onto a specific code. They are compared as
// plain syscall.Errno values so classification works on every GOOS.
const (
	errnoAccessDenied        syscall.Errno = 5
	errnoInvalidHandle       syscall.Errno = 6
	errnoInvalidWindowHandle syscall.Errno = 1400
	errnoTimeout             syscall.Errno = 1460
)

// ClassifyError maps a platform error onto an operation error code
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Code
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case errnoAccessDenied:
			return ErrCodePermission
		case errnoInvalidHandle, errnoInvalidWindowHandle:
			return ErrCodeInvalidHandle
		case errnoTimeout:
			return ErrCodeTimeout
		}
	}

	switch {
	case errors.Is(err, errors.ErrUnsupported):
		return ErrCodeUnsupported
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "access is denied"), strings.Contains(errStr, "access denied"):
		return ErrCodePermission
	case strings.Contains(errStr, "invalid window handle"):
		return ErrCodeInvalidHandle
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "timed out"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// HandleContext renders a window handle the way every error context carries it
func HandleContext(handle uintptr) map[string]string {
	return map[string]string{
		"handle": fmt.Sprintf("0x%x", handle),
	}
}

// NewEnumerationError wraps a failed window walk
func NewEnumerationError(op string, err error) *OperationError {
	return NewOperationError(op, err, ErrCodeEnumeration)
}

// NewFocusError wraps a refused foreground request for the given handle
func NewFocusError(op string, handle uintptr, err error) *OperationError {
	ctx := HandleContext(handle)
	if cause := ClassifyError(err); cause != ErrCodeUnknown {
		ctx["cause"] = cause.String()
	}
	return NewOperationErrorWithContext(op, err, ErrCodeFocus, ctx)
}

// NewThumbnailError wraps a refused thumbnail registration
func NewThumbnailError(op string, source, destination uintptr, err error) *OperationError {
	ctx := map[string]string{
		"source":      fmt.Sprintf("0x%x", source),
		"destination": fmt.Sprintf("0x%x", destination),
	}
	return NewOperationErrorWithContext(op, err, ErrCodeThumbnail, ctx)
}

// HandleValidationError creates a standardized configuration validation error
func HandleValidationError(op string, field string, value string, reason string) error {
	contextMap := map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	}
	return NewOperationErrorWithContext(op, errors.New("validation failed"), ErrCodeConfig, contextMap)
}
