package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode represents different kinds of window operation failures
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeEnumeration
	ErrCodeFocus
	ErrCodeThumbnail
	ErrCodeInvalidHandle
	ErrCodePermission
	ErrCodeUnsupported
	ErrCodeTimeout
	ErrCodeConfig
	ErrCodeInternal
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeEnumeration:
		return "ENUMERATION"
	case ErrCodeFocus:
		return "FOCUS"
	case ErrCodeThumbnail:
		return "THUMBNAIL"
	case ErrCodeInvalidHandle:
		return "INVALID_HANDLE"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeUnsupported:
		return "UNSUPPORTED"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodeConfig:
		return "CONFIG"
	case ErrCodeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// OperationError is a window-system failure carrying the operation, a
// classification code and optional context such as the target handle.
type OperationError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Retryable bool              // whether the error is retryable
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *OperationError) Error() string {
	if e == nil {
		return "window operation error"
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}

	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	// Context keys are sorted so messages are stable
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	contextStr := ""
	if len(parts) > 0 {
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + contextStr
	}
	return "window operation error" + contextStr
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements error matching for errors.Is
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *OperationError) IsRetryable() bool {
	if e == nil {
		return false
	}
	return e.Retryable
}

// GetCode returns the error code as a string (for logging interface compatibility)
func (e *OperationError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for logging interface compatibility)
func (e *OperationError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *OperationError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds context information to the error by mutating the receiver.
// It is not safe to call once the error has been handed to another goroutine.
func (e *OperationError) WithContext(key, value string) *OperationError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// NewOperationError creates a new operation error with the given parameters
func NewOperationError(op string, err error, code ErrorCode) *OperationError {
	return &OperationError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: isRetryableError(code, err),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewOperationErrorWithContext creates a new operation error with additional context
func NewOperationErrorWithContext(op string, err error, code ErrorCode, context map[string]string) *OperationError {
	opErr := NewOperationError(op, err, code)
	if context != nil {
		opErr.Context = make(map[string]string, len(context))
		for k, v := range context {
			opErr.Context[k] = v
		}
	}
	return opErr
}

// isRetryableError determines if an error is retryable based on its code.
// A failed window walk is transient; focus and thumbnail refusals are not
// retried automatically.
func isRetryableError(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeEnumeration, ErrCodeTimeout:
		return true
	case ErrCodeFocus, ErrCodeThumbnail, ErrCodeInvalidHandle, ErrCodePermission,
		ErrCodeUnsupported, ErrCodeConfig, ErrCodeInternal:
		return false
	default:
		if err != nil {
			errStr := strings.ToLower(err.Error())
			return strings.Contains(errStr, "temporary") ||
				strings.Contains(errStr, "retry") ||
				strings.Contains(errStr, "busy")
		}
		return false
	}
}

// Error classification functions

func hasCode(err error, code ErrorCode) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Code == code
	}
	return false
}

// IsEnumeration reports whether the window walk itself failed
func IsEnumeration(err error) bool {
	return hasCode(err, ErrCodeEnumeration)
}

// IsFocus reports whether the OS refused to bring a window forward
func IsFocus(err error) bool {
	return hasCode(err, ErrCodeFocus)
}

// IsThumbnail reports whether thumbnail registration failed
func IsThumbnail(err error) bool {
	return hasCode(err, ErrCodeThumbnail)
}

// hasCause also looks through an operation error at what the OS reported,
// so a focus failure on a vanished window still counts as an invalid handle.
func hasCause(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Code == code || (opErr.Err != nil && ClassifyError(opErr.Err) == code)
	}
	return ClassifyError(err) == code
}

// IsInvalidHandle reports whether the target window no longer exists
func IsInvalidHandle(err error) bool {
	return hasCause(err, ErrCodeInvalidHandle)
}

// IsPermission checks if the error is a permission error
func IsPermission(err error) bool {
	return hasCause(err, ErrCodePermission)
}

// IsUnsupported reports whether the primitive is unavailable on this platform
func IsUnsupported(err error) bool {
	return hasCause(err, ErrCodeUnsupported)
}

// IsTimeout checks if the error is a timeout error
func IsTimeout(err error) bool {
	return hasCause(err, ErrCodeTimeout)
}

// IsConfig checks if the error is a configuration error
func IsConfig(err error) bool {
	return hasCode(err, ErrCodeConfig)
}

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Retryable
	}
	return false
}
