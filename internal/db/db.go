package db

import (
	"context"
	"time"
)

// Store is the facade every driver implements.
type Store interface {
	DocumentStore
	BlobStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Document is a stored record. Data never contains store metadata keys.
type Document struct {
	ID   string
	Data map[string]any
}

// File is a blob's metadata as returned by listings.
type File struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

// Rendering holds pass-through options for a blob URL.
// The zero value requests the original bytes.
type Rendering struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Gravity string `yaml:"gravity"`
	Quality int    `yaml:"quality"`
}

// IsZero reports whether no rendering option is set.
func (r Rendering) IsZero() bool {
	return r == Rendering{}
}

// DocumentStore creates, lists and deletes documents in named collections.
type DocumentStore interface {
	// CreateDocument stores data under a store-generated ID.
	CreateDocument(ctx context.Context, collectionID string, data map[string]any) (Document, error)
	// ListDocuments returns every document, following pagination to the end.
	ListDocuments(ctx context.Context, collectionID string) ([]Document, error)
	DeleteDocument(ctx context.Context, collectionID, id string) error
}

// BlobStore stores binary objects and derives fetchable URLs for them.
type BlobStore interface {
	// UploadBlob stores data under a store-generated ID and returns it.
	UploadBlob(ctx context.Context, bucketID string, data []byte, name, mimeType string) (string, error)
	ResolvableURL(bucketID, blobID string, r Rendering) (string, error)
	// ListFiles returns every file, following pagination to the end.
	ListFiles(ctx context.Context, bucketID string) ([]File, error)
	DeleteFile(ctx context.Context, bucketID, id string) error
}
