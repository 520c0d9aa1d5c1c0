package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrTransportExhausted indicates a transient transport fault that
	// exceeded its retry budget. Fatal to the current query's harvest,
	// not to the whole job.
	ErrTransportExhausted = errors.New("transport retries exhausted")

	// ErrBadResponse indicates a malformed or rejected request (non-2xx
	// status or an unparsable body). Never retried.
	ErrBadResponse = errors.New("bad response")

	// ErrMalformedLedger indicates a corrupt persisted ledger. Recovered
	// locally by treating the ledger as empty.
	ErrMalformedLedger = errors.New("malformed ledger")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientSentences indicates that a text had too few
	// qualifying sentences to evaluate semantic coherence. Resolved by
	// policy as a rejection.
	ErrInsufficientSentences = errors.New("insufficient sentences")

	// ErrEmptyCorpus indicates that a downstream stage was given a corpus
	// with no records to work with.
	ErrEmptyCorpus = errors.New("empty corpus")
)

// TransportExhaustedError provides details about a transport failure that
// survived every retry attempt.
type TransportExhaustedError struct {
	Query    string
	Offset   int
	Attempts int
	Cause    error
}

// Error implements the error interface.
func (e *TransportExhaustedError) Error() string {
	return fmt.Sprintf("fetch %q at offset %d: transport failed after %d attempts: %v",
		e.Query, e.Offset, e.Attempts, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *TransportExhaustedError) Unwrap() error {
	return ErrTransportExhausted
}

// ResponseError provides details about a rejected or undecodable API
// response.
type ResponseError struct {
	Query      string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("search %q: response error (status %d): %s", e.Query, e.StatusCode, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ResponseError) Unwrap() error {
	return ErrBadResponse
}

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewTransportExhaustedError creates a new TransportExhaustedError.
func NewTransportExhaustedError(query string, offset, attempts int, cause error) *TransportExhaustedError {
	return &TransportExhaustedError{
		Query:    query,
		Offset:   offset,
		Attempts: attempts,
		Cause:    cause,
	}
}

// NewResponseError creates a new ResponseError.
func NewResponseError(query string, statusCode int, message string) *ResponseError {
	return &ResponseError{
		Query:      query,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
