// Package reset empties collections and buckets before a reseed.
package reset

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/menuseed/internal/db"
	"github.com/kailas-cloud/menuseed/internal/domain"
	"github.com/kailas-cloud/menuseed/internal/logger"
	"github.com/kailas-cloud/menuseed/internal/metrics"
	"github.com/kailas-cloud/menuseed/internal/retry"
)

// DefaultWorkers bounds concurrent deletes when New gets a non-positive value.
const DefaultWorkers = 8

// Service deletes everything in a target with bounded parallelism.
type Service struct {
	store   Store
	workers int
	timeout time.Duration
	policy  retry.Policy
	metrics *metrics.Seed
}

// New creates a resetter running at most workers deletes at once.
func New(store Store, workers int) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{store: store, workers: workers, policy: retry.None{}}
}

// WithTimeout bounds each store call. Zero disables the bound.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WithRetry sets the policy wrapping every store call.
func (s *Service) WithRetry(p retry.Policy) *Service {
	if p != nil {
		s.policy = p
	}
	return s
}

// WithMetrics enables deletion counters.
func (s *Service) WithMetrics(m *metrics.Seed) *Service {
	s.metrics = m
	return s
}

// ResetCollection deletes every document in collectionID and returns how many were removed.
// An empty collection is a no-op.
func (s *Service) ResetCollection(ctx context.Context, collectionID string) (int, error) {
	var docs []db.Document
	err := s.call(ctx, db.OpListDocuments, func(ctx context.Context) error {
		var err error
		docs, err = s.store.ListDocuments(ctx, collectionID)
		return err
	})
	if err != nil {
		return 0, &domain.ResetFailure{
			Target: collectionID,
			Err:    &domain.UpstreamAPIError{Op: db.OpListDocuments, Collection: collectionID, Err: err},
		}
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return s.purge(ctx, collectionID, ids, func(ctx context.Context, id string) error {
		err := s.call(ctx, db.OpDeleteDocument, func(ctx context.Context) error {
			return s.store.DeleteDocument(ctx, collectionID, id)
		})
		if err != nil {
			return &domain.UpstreamAPIError{Op: db.OpDeleteDocument, Collection: collectionID, Err: err}
		}
		return nil
	})
}

// ResetBucket deletes every file in bucketID and returns how many were removed.
// An empty bucket is a no-op.
func (s *Service) ResetBucket(ctx context.Context, bucketID string) (int, error) {
	var files []db.File
	err := s.call(ctx, db.OpListFiles, func(ctx context.Context) error {
		var err error
		files, err = s.store.ListFiles(ctx, bucketID)
		return err
	})
	if err != nil {
		return 0, &domain.ResetFailure{Target: bucketID, Err: fmt.Errorf("list files: %w", err)}
	}

	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return s.purge(ctx, bucketID, ids, func(ctx context.Context, id string) error {
		err := s.call(ctx, db.OpDeleteFile, func(ctx context.Context) error {
			return s.store.DeleteFile(ctx, bucketID, id)
		})
		if err != nil {
			return fmt.Errorf("delete file %s: %w", id, err)
		}
		return nil
	})
}

// purge runs del for every id. The first failure cancels the deletes not yet started.
func (s *Service) purge(ctx context.Context, target string, ids []string, del func(context.Context, string) error) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := del(gctx, id); err != nil {
				return err
			}
			deleted.Add(1)
			return nil
		})
	}
	err := g.Wait()

	n := int(deleted.Load())
	s.metrics.Deleted(target, n)
	if err != nil {
		return n, &domain.ResetFailure{Target: target, Deleted: n, Err: err}
	}

	logger.FromContext(ctx).Debug("target emptied", zap.String("target", target), zap.Int("deleted", n))
	return n, nil
}

func (s *Service) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return s.policy.Do(ctx, op, func(ctx context.Context) error {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return fn(ctx)
	})
}
