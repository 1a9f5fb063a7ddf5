package seed

import (
	"context"

	"github.com/kailas-cloud/menuseed/internal/domain"
)

// Repository creates catalog documents.
type Repository interface {
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	CreateCustomization(ctx context.Context, c domain.Customization) (domain.Customization, error)
	CreateMenuItem(ctx context.Context, m domain.MenuItem) (domain.MenuItem, error)
	CreateLink(ctx context.Context, l domain.MenuCustomizationLink) (domain.MenuCustomizationLink, error)
}

// Uploader republishes a remote asset and returns its resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string) (string, error)
}

// Resolver maps dataset names to generated IDs.
type Resolver interface {
	Record(kind domain.Kind, key, id string) error
	Resolve(kind domain.Kind, key string) (string, error)
}
