package asset

import (
	"context"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// BlobStore stores fetched assets and resolves their public URLs.
type BlobStore interface {
	UploadBlob(ctx context.Context, bucketID string, data []byte, name, mimeType string) (string, error)
	ResolvableURL(bucketID, blobID string, r db.Rendering) (string, error)
}
