package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Kind classifies an error for flow handling: validation and session errors
// re-prompt or reset locally, the rest decide whether flow data survives.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindSessionExpired    Kind = "session_expired"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindUnsupported       Kind = "unsupported"
	KindExternal          Kind = "external"
)

type AppError struct {
	Kind        Kind
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	// Retryable marks errors where retrying the downstream call may help.
	Retryable bool
	// Recoverable marks errors that keep the current flow data so the user
	// can adjust instead of restarting.
	Recoverable bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Kind:        KindValidation,
		Code:        "E100",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityLow,
		Retryable:   false,
		Recoverable: true,
	}
}

func NewSessionExpiredError() *AppError {
	return &AppError{
		Kind:        KindSessionExpired,
		Code:        "E110",
		Message:     "session data missing for current state",
		UserMessage: "Your session expired. Please start over from the main menu.",
		Severity:    SeverityLow,
		Retryable:   false,
		Recoverable: false,
	}
}

func NewInsufficientFundsError(msg string) *AppError {
	return &AppError{
		Kind:        KindInsufficientFunds,
		Code:        "E120",
		Message:     "insufficient funds: " + msg,
		UserMessage: msg,
		Severity:    SeverityLow,
		Retryable:   false,
		Recoverable: true,
	}
}

func NewUnsupportedError(msg string) *AppError {
	return &AppError{
		Kind:        KindUnsupported,
		Code:        "E130",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityMedium,
		Retryable:   false,
		Recoverable: false,
	}
}

func NewExternalError(apiName string, cause error) *AppError {
	return &AppError{
		Kind:        KindExternal,
		Code:        "E300",
		Message:     fmt.Sprintf("external call failed: %s", apiName),
		UserMessage: "The service is temporarily unavailable. Please try again.",
		Severity:    SeverityMedium,
		Retryable:   true,
		Recoverable: true,
		cause:       cause,
	}
}

// NewExecutionError marks a failure during or after the irreversible
// execution step. It is never retryable and clears the flow, because a
// partial side effect may already exist.
func NewExecutionError(apiName string, cause error) *AppError {
	return &AppError{
		Kind:        KindExternal,
		Code:        "E310",
		Message:     fmt.Sprintf("execution failed: %s", apiName),
		UserMessage: "The operation could not be completed. Please check your balance and start over.",
		Severity:    SeverityHigh,
		Retryable:   false,
		Recoverable: false,
		cause:       cause,
	}
}
