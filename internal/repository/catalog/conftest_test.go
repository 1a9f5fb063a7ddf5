package catalog

import (
	"context"
	"testing"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createFn func(ctx context.Context, collectionID string, data map[string]any) (db.Document, error)
	listFn   func(ctx context.Context, collectionID string) ([]db.Document, error)
}

func (m *mockStore) CreateDocument(ctx context.Context, collectionID string, data map[string]any) (db.Document, error) {
	if m.createFn != nil {
		return m.createFn(ctx, collectionID, data)
	}
	return db.Document{ID: "doc-1", Data: data}, nil
}

func (m *mockStore) ListDocuments(ctx context.Context, collectionID string) ([]db.Document, error) {
	if m.listFn != nil {
		return m.listFn(ctx, collectionID)
	}
	return nil, nil
}

var testCollections = Collections{
	Categories:         "categories",
	Customizations:     "customizations",
	Menu:               "menu",
	MenuCustomizations: "menu_customizations",
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testCollections), ms
}
