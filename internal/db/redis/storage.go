package redis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// UploadBlob stores the bytes and their metadata in one hash under a fresh UUID.
func (s *Store) UploadBlob(ctx context.Context, bucketID string, data []byte, name, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", &db.Error{Op: db.OpUploadBlob, Err: fmt.Errorf("empty file %q", name)}
	}

	id := s.newID()
	cmd := s.b().Hset().Key(s.blobKey(bucketID, id)).FieldValue().
		FieldValue("name", name).
		FieldValue("mime", mimeType).
		FieldValue("size", strconv.Itoa(len(data))).
		FieldValue("data", string(data)).
		Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return "", &db.Error{Op: db.OpUploadBlob, Err: err}
	}
	return id, nil
}

// ResolvableURL joins the public base URL, bucket and blob ID; rendering options become query parameters.
func (s *Store) ResolvableURL(bucketID, blobID string, r db.Rendering) (string, error) {
	if blobID == "" {
		return "", &db.Error{Op: db.OpResolveURL, Err: fmt.Errorf("blob id is required")}
	}

	u := s.publicBaseURL + "/" + url.PathEscape(bucketID) + "/" + url.PathEscape(blobID)
	if r.IsZero() {
		return u, nil
	}

	q := url.Values{}
	if r.Width > 0 {
		q.Set("w", strconv.Itoa(r.Width))
	}
	if r.Height > 0 {
		q.Set("h", strconv.Itoa(r.Height))
	}
	if r.Gravity != "" {
		q.Set("gravity", r.Gravity)
	}
	if r.Quality > 0 {
		q.Set("q", strconv.Itoa(r.Quality))
	}
	return u + "?" + q.Encode(), nil
}

// ListFiles scans the bucket keyspace and reads metadata fields only.
func (s *Store) ListFiles(ctx context.Context, bucketID string) ([]db.File, error) {
	keys, err := s.scan(ctx, s.blobKey(bucketID, "*"))
	if err != nil {
		return nil, &db.Error{Op: db.OpListFiles, Err: err}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hmget().Key(key).Field("name", "mime", "size").Build()
	}

	prefix := s.blobKey(bucketID, "")
	files := make([]db.File, 0, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		vals, err := res.AsStrSlice()
		if err != nil {
			return nil, &db.Error{Op: db.OpListFiles, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		if len(vals) != 3 {
			return nil, &db.Error{Op: db.OpListFiles, Err: fmt.Errorf("key %s: malformed blob", keys[i])}
		}
		size, _ := strconv.ParseInt(vals[2], 10, 64)
		files = append(files, db.File{
			ID:       strings.TrimPrefix(keys[i], prefix),
			Name:     vals[0],
			MimeType: vals[1],
			Size:     size,
		})
	}
	return files, nil
}

// DeleteFile removes a blob by ID.
func (s *Store) DeleteFile(ctx context.Context, bucketID, id string) error {
	if err := s.del(ctx, s.blobKey(bucketID, id)); err != nil {
		return &db.Error{Op: db.OpDeleteFile, Err: err}
	}
	return nil
}
