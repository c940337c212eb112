package types

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidProviderID = errors.New("invalid provider ID")

	// Request errors
	ErrEmptyQuery        = errors.New("empty search query")
	ErrQueryTooLong      = errors.New("query too long")
	ErrInvalidMaxResults = errors.New("max_results out of range")

	// Provider errors
	ErrProviderNotFound      = errors.New("provider not found")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrProviderTimeout       = errors.New("provider timeout")
	ErrCircuitOpen           = errors.New("circuit breaker open")

	// Response errors
	ErrInvalidResponse = errors.New("invalid response from provider")
)

// ProviderError wraps provider-specific errors
type ProviderError struct {
	Provider SourceID
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Provider, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
