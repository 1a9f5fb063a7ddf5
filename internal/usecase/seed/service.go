// Package seed turns dataset records into catalog documents.
//
// Every method returns a slice index-aligned with its input. On error the
// slice holds whatever was created before the failure; the remaining
// entries are zero values.
package seed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/menuseed/internal/domain"
	"github.com/kailas-cloud/menuseed/internal/domain/dataset"
	"github.com/kailas-cloud/menuseed/internal/metrics"
)

// DefaultWorkers bounds per-phase parallelism when New gets a non-positive value.
const DefaultWorkers = 4

// Metric labels for created documents.
const (
	entityCategory      = "category"
	entityCustomization = "customization"
	entityMenuItem      = "menu_item"
	entityLink          = "menu_customization"
)

// Service runs the seeding phases.
type Service struct {
	repo     Repository
	uploader Uploader
	refs     Resolver
	workers  int
	metrics  *metrics.Seed
}

// New creates a seeder. workers == 1 keeps every phase strictly sequential.
func New(repo Repository, uploader Uploader, refs Resolver, workers int) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{repo: repo, uploader: uploader, refs: refs, workers: workers}
}

// WithMetrics enables created-document counters.
func (s *Service) WithMetrics(m *metrics.Seed) *Service {
	s.metrics = m
	return s
}

// Categories creates one document per record and records name -> ID.
func (s *Service) Categories(ctx context.Context, records []dataset.Category) ([]domain.Category, error) {
	out := make([]domain.Category, len(records))
	err := s.forEach(ctx, len(records), func(ctx context.Context, i int) error {
		rec := records[i]
		c, err := s.repo.CreateCategory(ctx, domain.Category{Name: rec.Name, Description: rec.Description})
		if err != nil {
			return fmt.Errorf("category %q: %w", rec.Name, err)
		}
		if err := s.refs.Record(domain.KindCategory, rec.Name, c.ID); err != nil {
			return fmt.Errorf("record category %q: %w", rec.Name, err)
		}
		out[i] = c
		s.metrics.DocumentCreated(entityCategory)
		return nil
	})
	return out, err
}

// Customizations creates one document per record and records name -> ID.
func (s *Service) Customizations(ctx context.Context, records []dataset.Customization) ([]domain.Customization, error) {
	out := make([]domain.Customization, len(records))
	err := s.forEach(ctx, len(records), func(ctx context.Context, i int) error {
		rec := records[i]
		c, err := s.repo.CreateCustomization(ctx, domain.Customization{Name: rec.Name, Price: rec.Price, Type: rec.Type})
		if err != nil {
			return fmt.Errorf("customization %q: %w", rec.Name, err)
		}
		if err := s.refs.Record(domain.KindCustomization, rec.Name, c.ID); err != nil {
			return fmt.Errorf("record customization %q: %w", rec.Name, err)
		}
		out[i] = c
		s.metrics.DocumentCreated(entityCustomization)
		return nil
	})
	return out, err
}

// Menu uploads each record's image, resolves its category and creates the
// menu item. No document is created for a record whose upload or category
// resolution failed.
func (s *Service) Menu(ctx context.Context, records []dataset.MenuItem) ([]domain.MenuItem, error) {
	out := make([]domain.MenuItem, len(records))
	err := s.forEach(ctx, len(records), func(ctx context.Context, i int) error {
		rec := records[i]
		imageURL, err := s.uploader.Upload(ctx, rec.ImageURL)
		if err != nil {
			return fmt.Errorf("menu item %q: %w", rec.Name, err)
		}
		categoryID, err := s.refs.Resolve(domain.KindCategory, rec.CategoryName)
		if err != nil {
			return fmt.Errorf("menu item %q: %w", rec.Name, err)
		}
		m, err := s.repo.CreateMenuItem(ctx, domain.MenuItem{
			Name:        rec.Name,
			Description: rec.Description,
			ImageURL:    imageURL,
			Price:       rec.Price,
			Rating:      rec.Rating,
			Calories:    rec.Calories,
			Protein:     rec.Protein,
			CategoryID:  categoryID,
		})
		if err != nil {
			return fmt.Errorf("menu item %q: %w", rec.Name, err)
		}
		out[i] = m
		s.metrics.DocumentCreated(entityMenuItem)
		return nil
	})
	return out, err
}

type linkJob struct {
	menu          string
	menuID        string
	customization string
}

// Links creates one junction document per (menu item, customization name)
// pair. items must be the index-aligned result of Menu for records.
func (s *Service) Links(
	ctx context.Context, records []dataset.MenuItem, items []domain.MenuItem,
) ([]domain.MenuCustomizationLink, error) {
	if len(items) != len(records) {
		return nil, fmt.Errorf("links: %d menu items for %d records", len(items), len(records))
	}

	var jobs []linkJob
	for i, rec := range records {
		if items[i].ID == "" && len(rec.Customizations) > 0 {
			return nil, fmt.Errorf("links: menu item %q has no id", rec.Name)
		}
		for _, name := range rec.Customizations {
			jobs = append(jobs, linkJob{menu: rec.Name, menuID: items[i].ID, customization: name})
		}
	}

	out := make([]domain.MenuCustomizationLink, len(jobs))
	err := s.forEach(ctx, len(jobs), func(ctx context.Context, i int) error {
		job := jobs[i]
		customizationID, err := s.refs.Resolve(domain.KindCustomization, job.customization)
		if err != nil {
			return fmt.Errorf("menu item %q: %w", job.menu, err)
		}
		l, err := s.repo.CreateLink(ctx, domain.MenuCustomizationLink{MenuID: job.menuID, CustomizationID: customizationID})
		if err != nil {
			return fmt.Errorf("link %q to %q: %w", job.menu, job.customization, err)
		}
		out[i] = l
		s.metrics.DocumentCreated(entityLink)
		return nil
	})
	return out, err
}

// forEach runs fn for 0..n-1 on at most s.workers goroutines. After the
// first failure no new item starts; items already running finish.
func (s *Service) forEach(ctx context.Context, n int, fn func(context.Context, int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
