package pipeline

import (
	"context"

	"github.com/kailas-cloud/menuseed/internal/domain"
	"github.com/kailas-cloud/menuseed/internal/domain/dataset"
	"github.com/kailas-cloud/menuseed/internal/domain/reference"
)

// Resetter empties collections and buckets.
type Resetter interface {
	ResetCollection(ctx context.Context, collectionID string) (int, error)
	ResetBucket(ctx context.Context, bucketID string) (int, error)
}

// Seeder runs the seeding phases against one run's resolver.
type Seeder interface {
	Categories(ctx context.Context, records []dataset.Category) ([]domain.Category, error)
	Customizations(ctx context.Context, records []dataset.Customization) ([]domain.Customization, error)
	Menu(ctx context.Context, records []dataset.MenuItem) ([]domain.MenuItem, error)
	Links(ctx context.Context, records []dataset.MenuItem, items []domain.MenuItem) ([]domain.MenuCustomizationLink, error)
}

// SeederFactory builds a Seeder bound to a fresh resolver. Called once per run.
type SeederFactory func(refs *reference.Resolver) Seeder

// Counter counts documents in a collection.
type Counter interface {
	Count(ctx context.Context, collectionID string) (int, error)
}
