package domain

import (
	"errors"
	"fmt"
	"time"
)

// ConfigurationError reports missing or malformed recognizer credentials.
// It is raised before any network activity and is never retried.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("speech configuration: %s is required", e.Field)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TimeoutError is returned when the recognizer produced no terminal signal in time.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("speech recognition timed out after %s, please try again", e.After)
}

// ProviderError carries a non-zero status reported by the remote recognizer.
type ProviderError struct {
	Provider string
	Code     int
	Message  string
	SID      string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s recognition failed (%d)", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s recognition failed (%d): %s", e.Provider, e.Code, e.Message)
}

// TransportError wraps a connection level failure: dial, read, write or an
// inbound payload that could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("speech transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorKind classifies err into a short machine readable code used by the
// HTTP layer, metrics and transcription records.
func ErrorKind(err error) string {
	var (
		cfgErr       *ConfigurationError
		timeoutErr   *TimeoutError
		providerErr  *ProviderError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.As(err, &timeoutErr):
		return "transcription_timeout"
	case errors.As(err, &providerErr):
		return "provider_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	default:
		return "internal_error"
	}
}
