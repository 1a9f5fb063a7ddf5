package reset

import (
	"context"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// Store lists and deletes documents and files.
type Store interface {
	ListDocuments(ctx context.Context, collectionID string) ([]db.Document, error)
	DeleteDocument(ctx context.Context, collectionID, id string) error
	ListFiles(ctx context.Context, bucketID string) ([]db.File, error)
	DeleteFile(ctx context.Context, bucketID, id string) error
}
