package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies failures surfaced to API callers.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrConfiguration  ErrorCode = "CONFIGURATION"   // 500, operator-fixable
	ErrRateLimited    ErrorCode = "RATE_LIMITED"    // 429, passed through from the AI provider
	ErrQuotaExhausted ErrorCode = "QUOTA_EXHAUSTED" // 402, passed through from the AI provider
	ErrProvider       ErrorCode = "PROVIDER"        // 500
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrSaveFailed     ErrorCode = "SAVE_FAILED"     // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error is a classified failure. Message is safe to return to callers;
// Err carries the underlying cause for logs.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewInvalidRequest(msg string) *Error {
	return &Error{Code: ErrInvalidRequest, Status: http.StatusBadRequest, Message: msg}
}

func NewConfiguration(cause error) *Error {
	return &Error{Code: ErrConfiguration, Status: http.StatusInternalServerError, Message: "Configuration error", Err: cause}
}

func NewRateLimited() *Error {
	return &Error{Code: ErrRateLimited, Status: http.StatusTooManyRequests, Message: "Rate limit exceeded. Please try again later."}
}

func NewQuotaExhausted() *Error {
	return &Error{Code: ErrQuotaExhausted, Status: http.StatusPaymentRequired, Message: "AI credits depleted. Please add funds to continue."}
}

// NewProvider covers every non-success AI response other than rate limiting
// and quota exhaustion. All of them collapse to one generic 500.
func NewProvider(cause error) *Error {
	return &Error{Code: ErrProvider, Status: http.StatusInternalServerError, Message: "AI service error", Err: cause}
}

func NewNotFound(what string) *Error {
	return &Error{Code: ErrNotFound, Status: http.StatusNotFound, Message: what + " not found"}
}

func NewSaveFailed(cause error) *Error {
	return &Error{Code: ErrSaveFailed, Status: http.StatusInternalServerError, Message: "Failed to save summary", Err: cause}
}

func NewInternal(cause error) *Error {
	return &Error{Code: ErrInternal, Status: http.StatusInternalServerError, Message: "Internal server error", Err: cause}
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if err's chain holds an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// StatusOf maps err to an HTTP status. Unclassified errors are 500.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "Internal server error"
}
