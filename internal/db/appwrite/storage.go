package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// ChunkSize is the largest body Appwrite accepts per upload request.
const ChunkSize = 5 * 1024 * 1024

type fileResponse struct {
	ID           string `json:"$id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	SizeOriginal int64  `json:"sizeOriginal"`
}

type fileList struct {
	Total int            `json:"total"`
	Files []fileResponse `json:"files"`
}

// UploadBlob uploads data as a new file. Payloads above ChunkSize are sent
// as sequential Content-Range chunks bound together by the first chunk's ID.
func (s *Store) UploadBlob(ctx context.Context, bucketID string, data []byte, name, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", &db.Error{Op: db.OpUploadBlob, Err: fmt.Errorf("empty file %q", name)}
	}

	fileID := ""
	total := len(data)
	for start := 0; start < total; start += ChunkSize {
		end := min(start+ChunkSize, total)

		var resp fileResponse
		if err := s.uploadChunk(ctx, bucketID, fileID, data[start:end], name, mimeType, start, end, total, &resp); err != nil {
			return "", &db.Error{Op: db.OpUploadBlob, Err: err}
		}
		if fileID == "" {
			fileID = resp.ID
		}
	}

	if fileID == "" {
		return "", &db.Error{Op: db.OpUploadBlob, Err: fmt.Errorf("server returned no file id")}
	}
	return fileID, nil
}

func (s *Store) uploadChunk(
	ctx context.Context,
	bucketID, fileID string,
	chunk []byte,
	name, mimeType string,
	start, end, total int,
	out *fileResponse,
) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	id := fileID
	if id == "" {
		id = uniqueID
	}
	if err := mw.WriteField("fileId", id); err != nil {
		return fmt.Errorf("write fileId: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(chunk); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, bucketPath(bucketID), nil, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if total > ChunkSize {
		req.Header.Set("Content-Range", "bytes "+strconv.Itoa(start)+"-"+strconv.Itoa(end-1)+"/"+strconv.Itoa(total))
		if fileID != "" {
			req.Header.Set("X-Appwrite-ID", fileID)
		}
	}
	return s.send(req, out)
}

// ResolvableURL returns the public view URL, or the preview URL when rendering options are set.
func (s *Store) ResolvableURL(bucketID, blobID string, r db.Rendering) (string, error) {
	if blobID == "" {
		return "", &db.Error{Op: db.OpResolveURL, Err: fmt.Errorf("blob id is required")}
	}

	q := url.Values{}
	q.Set("project", s.projectID)
	action := "/view"
	if !r.IsZero() {
		action = "/preview"
		if r.Width > 0 {
			q.Set("width", strconv.Itoa(r.Width))
		}
		if r.Height > 0 {
			q.Set("height", strconv.Itoa(r.Height))
		}
		if r.Gravity != "" {
			q.Set("gravity", r.Gravity)
		}
		if r.Quality > 0 {
			q.Set("quality", strconv.Itoa(r.Quality))
		}
	}

	return s.endpoint + bucketPath(bucketID) + "/" + url.PathEscape(blobID) + action + "?" + q.Encode(), nil
}

// ListFiles pages through the bucket with cursorAfter until a short page.
func (s *Store) ListFiles(ctx context.Context, bucketID string) ([]db.File, error) {
	var out []db.File
	cursor := ""

	for {
		var page fileList
		if err := s.doJSON(ctx, http.MethodGet, bucketPath(bucketID), pageQuery(s.pageSize, cursor), nil, &page); err != nil {
			return nil, &db.Error{Op: db.OpListFiles, Err: err}
		}
		for _, f := range page.Files {
			out = append(out, db.File{ID: f.ID, Name: f.Name, MimeType: f.MimeType, Size: f.SizeOriginal})
		}
		if len(page.Files) < s.pageSize {
			return out, nil
		}
		cursor = out[len(out)-1].ID
	}
}

// DeleteFile removes a file by ID.
func (s *Store) DeleteFile(ctx context.Context, bucketID, id string) error {
	path := bucketPath(bucketID) + "/" + url.PathEscape(id)
	if err := s.doJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return &db.Error{Op: db.OpDeleteFile, Err: err}
	}
	return nil
}
