package errors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorTaxonomy(t *testing.T) {
	testCases := []struct {
		name        string
		err         *AppError
		kind        Kind
		recoverable bool
		retryable   bool
	}{
		{name: "validation", err: NewValidationError("bad input"), kind: KindValidation, recoverable: true},
		{name: "session expired", err: NewSessionExpiredError(), kind: KindSessionExpired},
		{name: "insufficient funds", err: NewInsufficientFundsError("short by 2"), kind: KindInsufficientFunds, recoverable: true},
		{name: "unsupported", err: NewUnsupportedError("no such pair"), kind: KindUnsupported},
		{name: "external", err: NewExternalError("quote", errors.New("timeout")), kind: KindExternal, recoverable: true, retryable: true},
		{name: "execution", err: NewExecutionError("transfer", errors.New("rpc failed")), kind: KindExternal},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
			assert.Equal(t, tc.recoverable, tc.err.Recoverable)
			assert.Equal(t, tc.retryable, tc.err.Retryable)
			assert.NotEmpty(t, tc.err.UserMessage)
		})
	}
}

func TestAsUnwrapsThroughWrapping(t *testing.T) {
	cause := errors.New("socket closed")
	wrapped := fmt.Errorf("fetching quote: %w", NewExternalError("quote", cause))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindExternal, appErr.Kind)
	assert.ErrorIs(t, wrapped, appErr.Unwrap())

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "bad input", UserMessage(NewValidationError("bad input")))
	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(errors.New("internal detail")),
		"internals never leak to the user")
}

func TestHandler_Handle(t *testing.T) {
	handler := NewHandler(testLogger(), false)
	ctx := context.Background()

	message, recoverable := handler.Handle(ctx, NewValidationError("try again"))
	assert.Equal(t, "try again", message)
	assert.True(t, recoverable)

	message, recoverable = handler.Handle(ctx, NewSessionExpiredError())
	assert.Contains(t, message, "session expired")
	assert.False(t, recoverable)

	message, recoverable = handler.Handle(ctx, errors.New("nil pointer somewhere"))
	assert.Equal(t, "Something went wrong. Please try again.", message)
	assert.False(t, recoverable)

	message, _ = handler.Handle(ctx, nil)
	assert.Empty(t, message)
}

func TestHandler_LogsUnderlyingCause(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	handler.Handle(context.Background(), NewExternalError("quote", errors.New("connection refused")))

	assert.Contains(t, buf.String(), "connection refused", "the wrapped cause must reach the log")
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	err := WithRetry(ctx, func() error {
		attempts++
		if attempts < 3 {
			return NewExternalError("flaky", errors.New("timeout"))
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts, "retryable errors are retried")

	attempts = 0
	err = WithRetry(ctx, func() error {
		attempts++
		return NewValidationError("permanent")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "non-retryable errors fail fast")
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return NewExternalError("flaky", errors.New("timeout"))
	})
	assert.ErrorIs(t, err, context.Canceled)
}
