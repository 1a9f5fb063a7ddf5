// Package catalog persists categories, customizations, menu items and their
// links as documents.
package catalog

import (
	"context"
	"time"

	"github.com/kailas-cloud/menuseed/internal/db"
	"github.com/kailas-cloud/menuseed/internal/domain"
	"github.com/kailas-cloud/menuseed/internal/retry"
)

// store is the consumer interface for documents (ISP).
type store interface {
	CreateDocument(ctx context.Context, collectionID string, data map[string]any) (db.Document, error)
	ListDocuments(ctx context.Context, collectionID string) ([]db.Document, error)
}

// Collections maps each entity to its collection ID.
type Collections struct {
	Categories         string
	Customizations     string
	Menu               string
	MenuCustomizations string
}

// All returns the collection IDs in seeding order.
func (c Collections) All() []string {
	return []string{c.Categories, c.Customizations, c.Menu, c.MenuCustomizations}
}

// Repo implements the seed and pipeline repositories.
type Repo struct {
	store   store
	cols    Collections
	timeout time.Duration
	policy  retry.Policy
}

// New creates a catalog repository with no call timeout and no retries.
func New(s store, cols Collections) *Repo {
	return &Repo{store: s, cols: cols, policy: retry.None{}}
}

// WithTimeout bounds every store call. Zero disables the bound.
func (r *Repo) WithTimeout(d time.Duration) *Repo {
	r.timeout = d
	return r
}

// WithRetry sets the policy wrapping every store call.
func (r *Repo) WithRetry(p retry.Policy) *Repo {
	if p != nil {
		r.policy = p
	}
	return r
}

// Collections returns the configured collection IDs.
func (r *Repo) Collections() Collections { return r.cols }

// CreateCategory stores c and returns it with its generated ID.
func (r *Repo) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	id, err := r.create(ctx, r.cols.Categories, categoryData(c))
	if err != nil {
		return domain.Category{}, err
	}
	c.ID = id
	return c, nil
}

// CreateCustomization stores c and returns it with its generated ID.
func (r *Repo) CreateCustomization(ctx context.Context, c domain.Customization) (domain.Customization, error) {
	id, err := r.create(ctx, r.cols.Customizations, customizationData(c))
	if err != nil {
		return domain.Customization{}, err
	}
	c.ID = id
	return c, nil
}

// CreateMenuItem stores m and returns it with its generated ID.
func (r *Repo) CreateMenuItem(ctx context.Context, m domain.MenuItem) (domain.MenuItem, error) {
	id, err := r.create(ctx, r.cols.Menu, menuItemData(m))
	if err != nil {
		return domain.MenuItem{}, err
	}
	m.ID = id
	return m, nil
}

// CreateLink stores l and returns it with its generated ID.
func (r *Repo) CreateLink(ctx context.Context, l domain.MenuCustomizationLink) (domain.MenuCustomizationLink, error) {
	id, err := r.create(ctx, r.cols.MenuCustomizations, linkData(l))
	if err != nil {
		return domain.MenuCustomizationLink{}, err
	}
	l.ID = id
	return l, nil
}

// Count returns the number of documents in collectionID.
func (r *Repo) Count(ctx context.Context, collectionID string) (int, error) {
	docs, err := r.list(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (r *Repo) create(ctx context.Context, collectionID string, data map[string]any) (string, error) {
	var doc db.Document
	err := r.policy.Do(ctx, db.OpCreateDocument, func(ctx context.Context) error {
		ctx, cancel := r.bound(ctx)
		defer cancel()
		var err error
		doc, err = r.store.CreateDocument(ctx, collectionID, data)
		return err
	})
	if err != nil {
		return "", &domain.UpstreamAPIError{Op: db.OpCreateDocument, Collection: collectionID, Err: err}
	}
	return doc.ID, nil
}

func (r *Repo) list(ctx context.Context, collectionID string) ([]db.Document, error) {
	var docs []db.Document
	err := r.policy.Do(ctx, db.OpListDocuments, func(ctx context.Context) error {
		ctx, cancel := r.bound(ctx)
		defer cancel()
		var err error
		docs, err = r.store.ListDocuments(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, &domain.UpstreamAPIError{Op: db.OpListDocuments, Collection: collectionID, Err: err}
	}
	return docs, nil
}

func (r *Repo) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
