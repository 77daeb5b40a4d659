package storage

import (
	"errors"
	"fmt"
)

// Storage error constants
var (
	// ErrConnectionFailure is returned when the MongoDB handshake fails for any reason
	// (network, DNS, TLS, authentication, server selection timeout)
	ErrConnectionFailure = errors.New("mongodb connection failure")

	// ErrNotConnected is returned when the shared handle is requested before a successful handshake
	ErrNotConnected = errors.New("mongodb is not connected")

	// ErrDatabaseClosed is returned when attempting to use a closed database connection
	ErrDatabaseClosed = errors.New("database is closed")
)

// ConnectionError carries the endpoint of a failed handshake alongside the driver error.
// It always matches ErrConnectionFailure with errors.Is.
type ConnectionError struct {
	// Endpoint is the redacted connection string of the failed attempt
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%v at %s: %v", ErrConnectionFailure, e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnectionFailure, e.Err}
}
