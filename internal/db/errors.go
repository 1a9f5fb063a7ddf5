package db

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for store operations.
var (
	ErrNotFound = errors.New("db: not found")
	ErrRejected = errors.New("db: rejected")
)

// Op constants name store operations for error context.
const (
	OpCreateDocument = "createDocument"
	OpListDocuments  = "listDocuments"
	OpDeleteDocument = "deleteDocument"
	OpUploadBlob     = "uploadBlob"
	OpListFiles      = "listFiles"
	OpDeleteFile     = "deleteFile"
	OpResolveURL     = "resolvableUrl"
	OpPing           = "ping"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// APIError is a non-2xx response from an HTTP store.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps 404 to ErrNotFound and every other status to ErrRejected.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrRejected
}

// Transient reports whether the status is worth retrying.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
