package errors

import "errors"

// As unwraps err into an *AppError if possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}

	return nil, false
}

// KindOf returns the taxonomy kind of err, defaulting to KindExternal for
// errors that did not originate inside the engine.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}

	return KindExternal
}

// IsRecoverable reports whether the flow data should survive err.
func IsRecoverable(err error) bool {
	if appErr, ok := As(err); ok {
		return appErr.Recoverable
	}

	return false
}

// UserMessage extracts the user-facing text for err, with a generic
// fallback for unclassified errors.
func UserMessage(err error) string {
	if appErr, ok := As(err); ok && appErr.UserMessage != "" {
		return appErr.UserMessage
	}

	return "Something went wrong. Please try again."
}
