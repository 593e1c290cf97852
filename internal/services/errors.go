package services

import "fmt"

// Custom errors

// InvalidConfigurationError reports malformed user input (bad JSON, empty
// particle configuration). Recoverable: the user re-enters the data.
type InvalidConfigurationError struct{ Message string }

func (e *InvalidConfigurationError) Error() string { return e.Message }

// MissingCredentialError is returned before any network call when no API key
// is configured for the session or the server.
type MissingCredentialError struct{}

func (e *MissingCredentialError) Error() string { return "no API key configured" }

// RemoteServiceError carries an error payload reported by the chat endpoint
// itself. The message is surfaced to the user verbatim.
type RemoteServiceError struct{ Message string }

func (e *RemoteServiceError) Error() string { return e.Message }

// NetworkError wraps a transport-level failure reaching the chat endpoint.
type NetworkError struct{ Err error }

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }
