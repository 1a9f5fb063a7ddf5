package domain

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrFetch signals that an asset source was unreachable or answered with a non-2xx status.
	ErrFetch = errors.New("asset fetch failed")
	// ErrUpload signals that the blob store rejected an asset write.
	ErrUpload = errors.New("asset upload failed")
	// ErrUpstreamAPI signals that the document store rejected a create, list or delete.
	ErrUpstreamAPI = errors.New("upstream api error")
	// ErrUnresolvedReference signals a dataset record naming a key that was never seeded.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrResetFailure signals a partially completed reset.
	ErrResetFailure = errors.New("reset failed")
	// ErrCountMismatch signals that a collection holds a different number of documents than the dataset.
	ErrCountMismatch = errors.New("document count mismatch")
	// ErrInvalidDataset signals a dataset that failed schema validation.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// FetchError describes a failed asset download.
// StatusCode is zero when the request never produced a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d", ErrFetch, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", ErrFetch, e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// Transient reports whether the source throttled, failed server-side or timed out.
func (e *FetchError) Transient() bool {
	if e.StatusCode != 0 {
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// UploadError describes a blob store rejection for the asset fetched from URL.
type UploadError struct {
	URL string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpload, e.URL, e.Err)
}

func (e *UploadError) Unwrap() []error { return []error{ErrUpload, e.Err} }

// UpstreamAPIError describes a document store rejection.
type UpstreamAPIError struct {
	Op         string
	Collection string
	Err        error
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrUpstreamAPI, e.Op, e.Collection, e.Err)
}

func (e *UpstreamAPIError) Unwrap() []error { return []error{ErrUpstreamAPI, e.Err} }

// UnresolvedReferenceError names the kind and key that had no recorded ID.
type UnresolvedReferenceError struct {
	Kind Kind
	Key  string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrUnresolvedReference, e.Kind, e.Key)
}

func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolvedReference }

// ResetFailure reports how many deletions succeeded before Target could not be emptied.
type ResetFailure struct {
	Target  string
	Deleted int
	Err     error
}

func (e *ResetFailure) Error() string {
	return fmt.Sprintf("%s: %s (deleted %d): %v", ErrResetFailure, e.Target, e.Deleted, e.Err)
}

func (e *ResetFailure) Unwrap() []error { return []error{ErrResetFailure, e.Err} }

// CountMismatchError is returned by the verify phase.
type CountMismatchError struct {
	Collection string
	Want       int
	Got        int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: want %d, got %d", ErrCountMismatch, e.Collection, e.Want, e.Got)
}

func (e *CountMismatchError) Unwrap() error { return ErrCountMismatch }
