package appwrite

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// fakeServer is a minimal in-memory Appwrite used by the driver tests.
type fakeServer struct {
	mu        sync.Mutex
	seq       int
	docs      map[string]map[string]map[string]any // collection -> id -> data
	files     map[string]map[string]fakeFile       // bucket -> id -> file
	listCalls int
	failNext  int // status to return once on the next request, 0 = none
	lastHdr   http.Header
}

type fakeFile struct {
	name string
	mime string
	data []byte
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{
		docs:  map[string]map[string]map[string]any{},
		files: map[string]map[string]fakeFile{},
	}

	r := chi.NewRouter()
	r.Use(f.intercept)
	r.Get("/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "pass"})
	})
	r.Route("/v1/databases/{db}/collections/{coll}/documents", func(r chi.Router) {
		r.Post("/", f.createDocument)
		r.Get("/", f.listDocuments)
		r.Delete("/{id}", f.deleteDocument)
	})
	r.Route("/v1/storage/buckets/{bucket}/files", func(r chi.Router) {
		r.Post("/", f.createFile)
		r.Get("/", f.listFiles)
		r.Delete("/{id}", f.deleteFile)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastHdr = r.Header.Clone()
		status := f.failNext
		f.failNext = 0
		f.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]any{
				"message": "injected failure", "code": status, "type": "general_injected",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeServer) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%03d", prefix, f.seq)
}

func (f *fakeServer) createDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string         `json:"documentId"`
		Data       map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	if req.DocumentID != uniqueID {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "expected unique()"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	coll := chi.URLParam(r, "coll")
	if f.docs[coll] == nil {
		f.docs[coll] = map[string]map[string]any{}
	}
	id := f.nextID("d")
	f.docs[coll][id] = req.Data

	out := map[string]any{"$id": id, "$collectionId": coll}
	for k, v := range req.Data {
		out[k] = v
	}
	writeJSON(w, http.StatusCreated, out)
}

// page applies limit/cursorAfter over sorted ids.
func page(r *http.Request, ids []string) []string {
	sort.Strings(ids)
	limit := len(ids)
	cursor := ""
	for _, raw := range r.URL.Query()["queries[]"] {
		var q query
		_ = json.Unmarshal([]byte(raw), &q)
		switch q.Method {
		case "limit":
			limit = int(q.Values[0].(float64))
		case "cursorAfter":
			cursor = q.Values[0].(string)
		}
	}
	start := 0
	if cursor != "" {
		start = sort.SearchStrings(ids, cursor) + 1
	}
	end := min(start+limit, len(ids))
	if start > end {
		return nil
	}
	return ids[start:end]
}

func (f *fakeServer) listDocuments(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	coll := f.docs[chi.URLParam(r, "coll")]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}

	docs := []map[string]any{}
	for _, id := range page(r, ids) {
		d := map[string]any{"$id": id, "$createdAt": "2026-01-01T00:00:00.000+00:00"}
		for k, v := range coll[id] {
			d[k] = v
		}
		docs = append(docs, d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(coll), "documents": docs})
}

func (f *fakeServer) deleteDocument(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coll, id := chi.URLParam(r, "coll"), chi.URLParam(r, "id")
	if _, ok := f.docs[coll][id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Document not found", "type": "document_not_found"})
		return
	}
	delete(f.docs[coll], id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeServer) createFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	data, _ := io.ReadAll(file)

	f.mu.Lock()
	defer f.mu.Unlock()
	bucket := chi.URLParam(r, "bucket")
	if f.files[bucket] == nil {
		f.files[bucket] = map[string]fakeFile{}
	}

	id := r.Header.Get("X-Appwrite-ID")
	if id == "" {
		id = f.nextID("f")
	}
	prev := f.files[bucket][id]
	f.files[bucket][id] = fakeFile{
		name: hdr.Filename,
		mime: hdr.Header.Get("Content-Type"),
		data: append(prev.data, data...),
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"$id": id, "name": hdr.Filename, "mimeType": hdr.Header.Get("Content-Type"),
	})
}

func (f *fakeServer) listFiles(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	bucket := f.files[chi.URLParam(r, "bucket")]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	files := []map[string]any{}
	for _, id := range page(r, ids) {
		files = append(files, map[string]any{
			"$id": id, "name": bucket[id].name, "mimeType": bucket[id].mime, "sizeOriginal": len(bucket[id].data),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(bucket), "files": files})
}

func (f *fakeServer) deleteFile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket, id := chi.URLParam(r, "bucket"), chi.URLParam(r, "id")
	if _, ok := f.files[bucket][id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "File not found"})
		return
	}
	delete(f.files[bucket], id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
