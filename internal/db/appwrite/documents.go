package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kailas-cloud/menuseed/internal/db"
)

type createDocumentRequest struct {
	DocumentID string         `json:"documentId"`
	Data       map[string]any `json:"data"`
}

type documentList struct {
	Total     int                          `json:"total"`
	Documents []map[string]json.RawMessage `json:"documents"`
}

// CreateDocument stores data under a server-generated ID.
func (s *Store) CreateDocument(ctx context.Context, collectionID string, data map[string]any) (db.Document, error) {
	var raw map[string]json.RawMessage
	err := s.doJSON(ctx, http.MethodPost, collectionPath(s.databaseID, collectionID), nil,
		createDocumentRequest{DocumentID: uniqueID, Data: data}, &raw)
	if err != nil {
		return db.Document{}, &db.Error{Op: db.OpCreateDocument, Err: err}
	}

	doc, err := parseDocument(raw)
	if err != nil {
		return db.Document{}, &db.Error{Op: db.OpCreateDocument, Err: err}
	}
	return doc, nil
}

// ListDocuments pages through the collection with cursorAfter until a short page.
func (s *Store) ListDocuments(ctx context.Context, collectionID string) ([]db.Document, error) {
	var out []db.Document
	cursor := ""

	for {
		var page documentList
		err := s.doJSON(ctx, http.MethodGet, collectionPath(s.databaseID, collectionID),
			pageQuery(s.pageSize, cursor), nil, &page)
		if err != nil {
			return nil, &db.Error{Op: db.OpListDocuments, Err: err}
		}

		for _, raw := range page.Documents {
			doc, err := parseDocument(raw)
			if err != nil {
				return nil, &db.Error{Op: db.OpListDocuments, Err: err}
			}
			out = append(out, doc)
		}

		if len(page.Documents) < s.pageSize {
			return out, nil
		}
		cursor = out[len(out)-1].ID
	}
}

// DeleteDocument removes a document by ID.
func (s *Store) DeleteDocument(ctx context.Context, collectionID, id string) error {
	path := collectionPath(s.databaseID, collectionID) + "/" + url.PathEscape(id)
	if err := s.doJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return &db.Error{Op: db.OpDeleteDocument, Err: err}
	}
	return nil
}

// parseDocument splits "$"-prefixed metadata from user attributes.
func parseDocument(raw map[string]json.RawMessage) (db.Document, error) {
	var id string
	if v, ok := raw["$id"]; ok {
		if err := json.Unmarshal(v, &id); err != nil {
			return db.Document{}, fmt.Errorf("decode $id: %w", err)
		}
	}
	if id == "" {
		return db.Document{}, fmt.Errorf("document without $id")
	}

	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if strings.HasPrefix(k, "$") {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return db.Document{}, fmt.Errorf("decode %s: %w", k, err)
		}
		data[k] = val
	}
	return db.Document{ID: id, Data: data}, nil
}
