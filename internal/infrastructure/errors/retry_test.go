package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type mockRetryLogger struct {
	messages []string
}

func (m *mockRetryLogger) Printf(format string, v ...interface{}) {
	m.messages = append(m.messages, fmt.Sprintf(format, v...))
}

func fastConfig() *RetryConfig {
	config := DefaultRetryConfig()
	config.InitialDelay = time.Millisecond
	config.Jitter = false
	return config
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts to be 3, got %d", config.MaxAttempts)
	}
	if config.InitialDelay != 25*time.Millisecond {
		t.Errorf("Expected InitialDelay to be 25ms, got %v", config.InitialDelay)
	}
	if len(config.RetryableErrors) != 2 {
		t.Errorf("Expected 2 retryable error codes, got %d", len(config.RetryableErrors))
	}
}

func TestWithRetry_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	operation := func() error {
		callCount++
		if callCount < 3 {
			return NewEnumerationError("refresh", errors.New("walk failed"))
		}
		return nil
	}

	if err := WithRetry(context.Background(), fastConfig(), operation); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected operation to be called 3 times, got %d", callCount)
	}
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	callCount := 0
	operation := func() error {
		callCount++
		return NewFocusError("focus", 0x10, errors.New("denied"))
	}

	err := WithRetry(context.Background(), fastConfig(), operation)
	if !IsFocus(err) {
		t.Errorf("Expected focus error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected operation to be called once, got %d", callCount)
	}
}

func TestWithRetry_PlainErrorNotRetried(t *testing.T) {
	callCount := 0
	err := WithRetry(context.Background(), fastConfig(), func() error {
		callCount++
		return errors.New("plain")
	})
	if err == nil || callCount != 1 {
		t.Errorf("plain errors must not be retried: err=%v calls=%d", err, callCount)
	}
}

func TestWithRetry_MaxAttemptsExceeded(t *testing.T) {
	config := fastConfig()
	callCount := 0
	operation := func() error {
		callCount++
		return NewEnumerationError("refresh", errors.New("walk failed"))
	}

	err := WithRetry(context.Background(), config, operation)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if callCount != config.MaxAttempts {
		t.Errorf("Expected operation to be called %d times, got %d", config.MaxAttempts, callCount)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsEnumeration(err) {
		t.Error("last error should stay reachable through wrapping")
	}
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := DefaultRetryConfig()
	config.InitialDelay = 200 * time.Millisecond
	config.MaxDelay = time.Second
	config.Jitter = false

	callCount := 0
	operation := func() error {
		callCount++
		if callCount == 1 {
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
		}
		return NewEnumerationError("refresh", errors.New("walk failed"))
	}

	err := WithRetry(ctx, config, operation)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected operation to be called once, got %d", callCount)
	}
}

func TestWithRetry_NilConfig(t *testing.T) {
	callCount := 0
	err := WithRetry(context.Background(), nil, func() error {
		callCount++
		return nil
	})
	if err != nil || callCount != 1 {
		t.Errorf("err=%v calls=%d", err, callCount)
	}
}

func TestRetryQuick(t *testing.T) {
	callCount := 0
	err := RetryQuick(context.Background(), func() error {
		callCount++
		return NewEnumerationError("refresh", errors.New("walk failed"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 2 {
		t.Errorf("RetryQuick should make 2 attempts, got %d", callCount)
	}
}

func TestCalculateDelay(t *testing.T) {
	config := &RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := calculateDelay(tt.attempt, config); got != tt.expected {
				t.Errorf("calculateDelay(%d) = %v, expected %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestCalculateDelay_WithJitter(t *testing.T) {
	config := &RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}

	got := calculateDelay(0, config)
	if got < 100*time.Millisecond || got > 125*time.Millisecond {
		t.Errorf("jittered delay %v outside [100ms,125ms]", got)
	}
}

func TestSetRetryLogger(t *testing.T) {
	originalLogger := retryLogger
	defer func() {
		retryLogger = originalLogger
	}()

	mockLogger := &mockRetryLogger{}
	SetRetryLogger(mockLogger)

	callCount := 0
	operation := func() error {
		callCount++
		if callCount < 2 {
			return NewEnumerationError("refresh", errors.New("walk failed"))
		}
		return nil
	}

	if err := WithRetryContext(context.Background(), fastConfig(), operation, "refresh"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if len(mockLogger.messages) != 2 {
		t.Fatalf("Expected 2 log messages, got %d", len(mockLogger.messages))
	}
	if !strings.Contains(mockLogger.messages[0], "refresh") {
		t.Errorf("Expected first message to contain operation name, got: %s", mockLogger.messages[0])
	}
	if !strings.Contains(mockLogger.messages[1], "succeeded after 2 attempts") {
		t.Errorf("Expected success message, got: %s", mockLogger.messages[1])
	}
}

func TestLogRetryMessage_NilLogger(t *testing.T) {
	originalLogger := retryLogger
	defer func() {
		retryLogger = originalLogger
	}()

	SetRetryLogger(nil)
	logRetryMessage("test message %s", "param")
}
