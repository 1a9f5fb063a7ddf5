// Package memory is an in-process db.Store used for dry runs and tests.
// Nothing survives the process.
package memory

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type table struct {
	seq   int
	order []string
	rows  map[string]map[string]any
}

type blob struct {
	file db.File
	data []byte
}

type bucket struct {
	seq   int
	order []string
	blobs map[string]blob
}

// Store keeps collections and buckets in maps guarded by one mutex.
// IDs are "<collection>-<n>" with a per-collection counter.
type Store struct {
	mu      sync.Mutex
	tables  map[string]*table
	buckets map[string]*bucket
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tables:  map[string]*table{},
		buckets: map[string]*bucket{},
	}
}

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady is always ready.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

func (s *Store) table(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: map[string]map[string]any{}}
		s.tables[name] = t
	}
	return t
}

func (s *Store) bucket(name string) *bucket {
	b, ok := s.buckets[name]
	if !ok {
		b = &bucket{blobs: map[string]blob{}}
		s.buckets[name] = b
	}
	return b
}

// CreateDocument stores a copy of data.
func (s *Store) CreateDocument(ctx context.Context, collectionID string, data map[string]any) (db.Document, error) {
	if err := ctx.Err(); err != nil {
		return db.Document{}, &db.Error{Op: db.OpCreateDocument, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collectionID)
	t.seq++
	id := collectionID + "-" + strconv.Itoa(t.seq)
	t.rows[id] = maps.Clone(data)
	t.order = append(t.order, id)
	return db.Document{ID: id, Data: maps.Clone(data)}, nil
}

// ListDocuments returns documents in creation order.
func (s *Store) ListDocuments(ctx context.Context, collectionID string) ([]db.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpListDocuments, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collectionID)
	out := make([]db.Document, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, db.Document{ID: id, Data: maps.Clone(t.rows[id])})
	}
	return out, nil
}

// DeleteDocument removes a document; a missing ID is db.ErrNotFound.
func (s *Store) DeleteDocument(ctx context.Context, collectionID, id string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpDeleteDocument, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collectionID)
	if _, ok := t.rows[id]; !ok {
		return &db.Error{Op: db.OpDeleteDocument, Err: fmt.Errorf("%s/%s: %w", collectionID, id, db.ErrNotFound)}
	}
	delete(t.rows, id)
	t.order = remove(t.order, id)
	return nil
}

// UploadBlob stores a copy of data.
func (s *Store) UploadBlob(ctx context.Context, bucketID string, data []byte, name, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &db.Error{Op: db.OpUploadBlob, Err: err}
	}
	if len(data) == 0 {
		return "", &db.Error{Op: db.OpUploadBlob, Err: fmt.Errorf("empty file %q", name)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucket(bucketID)
	b.seq++
	id := bucketID + "-" + strconv.Itoa(b.seq)
	b.blobs[id] = blob{
		file: db.File{ID: id, Name: name, MimeType: mimeType, Size: int64(len(data))},
		data: append([]byte(nil), data...),
	}
	b.order = append(b.order, id)
	return id, nil
}

// ResolvableURL returns memory://<bucket>/<id>. Rendering options become query parameters.
func (s *Store) ResolvableURL(bucketID, blobID string, r db.Rendering) (string, error) {
	if blobID == "" {
		return "", &db.Error{Op: db.OpResolveURL, Err: fmt.Errorf("blob id is required")}
	}
	u := "memory://" + bucketID + "/" + blobID
	if r.IsZero() {
		return u, nil
	}
	q := url.Values{}
	q.Set("width", strconv.Itoa(r.Width))
	q.Set("height", strconv.Itoa(r.Height))
	if r.Gravity != "" {
		q.Set("gravity", r.Gravity)
	}
	q.Set("quality", strconv.Itoa(r.Quality))
	return u + "?" + q.Encode(), nil
}

// ListFiles returns files in upload order.
func (s *Store) ListFiles(ctx context.Context, bucketID string) ([]db.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpListFiles, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucket(bucketID)
	out := make([]db.File, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.blobs[id].file)
	}
	return out, nil
}

// DeleteFile removes a blob; a missing ID is db.ErrNotFound.
func (s *Store) DeleteFile(ctx context.Context, bucketID, id string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpDeleteFile, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucket(bucketID)
	if _, ok := b.blobs[id]; !ok {
		return &db.Error{Op: db.OpDeleteFile, Err: fmt.Errorf("%s/%s: %w", bucketID, id, db.ErrNotFound)}
	}
	delete(b.blobs, id)
	b.order = remove(b.order, id)
	return nil
}

// Blob returns the stored bytes of a blob.
func (s *Store) Blob(bucketID, id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bucket(bucketID).blobs[id]
	return b.data, ok
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
