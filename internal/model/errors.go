package model

import (
	"errors"
	"fmt"
)

// ErrorCode classifies pipeline failures
type ErrorCode string

const (
	CodeInvalidQuery       ErrorCode = "INVALID_QUERY"       // Malformed input, rejected before any remote call
	CodeEmbeddingFailed    ErrorCode = "EMBEDDING_FAILED"    // Query vector could not be computed
	CodeRetrievalFailed    ErrorCode = "RETRIEVAL_FAILED"    // Knowledge store transport failure
	CodeProviderTimeout    ErrorCode = "PROVIDER_TIMEOUT"    // Completion call exceeded its deadline
	CodeProviderFailed     ErrorCode = "PROVIDER_FAILED"     // Completion call returned an error
	CodeProvidersExhausted ErrorCode = "PROVIDERS_EXHAUSTED" // Primary retries and fallback all failed validation or transport
)

// Sentinels for errors.Is comparisons
var (
	ErrInvalidQuery       = &Error{Code: CodeInvalidQuery}
	ErrEmbeddingFailed    = &Error{Code: CodeEmbeddingFailed}
	ErrRetrievalFailed    = &Error{Code: CodeRetrievalFailed}
	ErrProviderTimeout    = &Error{Code: CodeProviderTimeout}
	ErrProviderFailed     = &Error{Code: CodeProviderFailed}
	ErrProvidersExhausted = &Error{Code: CodeProvidersExhausted}
)

// Error is the typed error returned across package boundaries
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Err       error     `json:"-"`
}

// NewError builds an Error wrapping cause
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: code == CodeProviderTimeout || code == CodeRetrievalFailed,
		Err:       cause,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinels compare equal to any Error of the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not an *Error
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
