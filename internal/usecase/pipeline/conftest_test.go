package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/menuseed/internal/db"
	"github.com/kailas-cloud/menuseed/internal/db/memory"
	"github.com/kailas-cloud/menuseed/internal/domain/reference"
	"github.com/kailas-cloud/menuseed/internal/logger"
	"github.com/kailas-cloud/menuseed/internal/repository/catalog"
	"github.com/kailas-cloud/menuseed/internal/usecase/asset"
	"github.com/kailas-cloud/menuseed/internal/usecase/reset"
	"github.com/kailas-cloud/menuseed/internal/usecase/seed"
)

var testTargets = Targets{
	Categories:         "categories",
	Customizations:     "customizations",
	Menu:               "menu",
	MenuCustomizations: "menu_customizations",
	Bucket:             "assets",
}

// faultyStore wraps the memory store with optional failure hooks.
type faultyStore struct {
	*memory.Store
	failCreate func(collectionID string, data map[string]any) error
	failDelete func(collectionID, id string) error
}

func (f *faultyStore) CreateDocument(ctx context.Context, collectionID string, data map[string]any) (db.Document, error) {
	if f.failCreate != nil {
		if err := f.failCreate(collectionID, data); err != nil {
			return db.Document{}, &db.Error{Op: db.OpCreateDocument, Err: err}
		}
	}
	return f.Store.CreateDocument(ctx, collectionID, data)
}

func (f *faultyStore) DeleteDocument(ctx context.Context, collectionID, id string) error {
	if f.failDelete != nil {
		if err := f.failDelete(collectionID, id); err != nil {
			return &db.Error{Op: db.OpDeleteDocument, Err: err}
		}
	}
	return f.Store.DeleteDocument(ctx, collectionID, id)
}

type harness struct {
	store    *faultyStore
	images   *httptest.Server
	repo     *catalog.Repo
	resetter *reset.Service
	factory  SeederFactory
	svc      *Service
	logs     *observer.ObservedLogs
	ctx      context.Context
}

// newHarness wires the real reset, asset and seed services over the memory store.
// The image server answers /img/<name> with "PNG:<name>" and 404 elsewhere.
func newHarness(t *testing.T, workers int) *harness {
	t.Helper()

	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := strings.CutPrefix(r.URL.Path, "/img/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNG:" + name))
	}))
	t.Cleanup(images.Close)

	store := &faultyStore{Store: memory.NewStore()}
	repo := catalog.New(store, catalog.Collections{
		Categories:         testTargets.Categories,
		Customizations:     testTargets.Customizations,
		Menu:               testTargets.Menu,
		MenuCustomizations: testTargets.MenuCustomizations,
	})
	uploader := asset.New(store, images.Client(), asset.Config{Bucket: testTargets.Bucket})
	resetter := reset.New(store, 2)
	factory := func(refs *reference.Resolver) Seeder {
		return seed.New(repo, uploader, refs, workers)
	}

	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	return &harness{
		store:    store,
		images:   images,
		repo:     repo,
		resetter: resetter,
		factory:  factory,
		svc:      New(resetter, factory, repo, testTargets),
		logs:     logs,
		ctx:      ctx,
	}
}

func (h *harness) img(name string) string {
	return h.images.URL + "/img/" + name
}

func (h *harness) docs(t *testing.T, collectionID string) []db.Document {
	t.Helper()
	docs, err := h.store.ListDocuments(context.Background(), collectionID)
	if err != nil {
		t.Fatalf("list %s: %v", collectionID, err)
	}
	return docs
}

func (h *harness) files(t *testing.T) []db.File {
	t.Helper()
	files, err := h.store.ListFiles(context.Background(), testTargets.Bucket)
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	return files
}
