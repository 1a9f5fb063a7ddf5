// Package pipeline sequences reset and seeding phases and stops at the first failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/menuseed/internal/domain"
	"github.com/kailas-cloud/menuseed/internal/domain/dataset"
	"github.com/kailas-cloud/menuseed/internal/domain/reference"
	"github.com/kailas-cloud/menuseed/internal/logger"
	"github.com/kailas-cloud/menuseed/internal/metrics"
)

// Targets names the collections and the bucket a run resets and fills.
type Targets struct {
	Categories         string
	Customizations     string
	Menu               string
	MenuCustomizations string
	Bucket             string
}

func (t Targets) collections() []string {
	return []string{t.Categories, t.Customizations, t.Menu, t.MenuCustomizations}
}

// Service is the seeding orchestrator.
type Service struct {
	resetter  Resetter
	newSeeder SeederFactory
	counter   Counter
	targets   Targets
	verify    bool
	timeout   time.Duration
	metrics   *metrics.Seed
}

// New creates an orchestrator with the verify phase enabled.
func New(resetter Resetter, newSeeder SeederFactory, counter Counter, targets Targets) *Service {
	return &Service{
		resetter:  resetter,
		newSeeder: newSeeder,
		counter:   counter,
		targets:   targets,
		verify:    true,
	}
}

// WithVerify toggles the post-run count check.
func (s *Service) WithVerify(on bool) *Service {
	s.verify = on
	return s
}

// WithTimeout bounds the whole run. Zero disables the bound.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WithMetrics enables phase and run metrics.
func (s *Service) WithMetrics(m *metrics.Seed) *Service {
	s.metrics = m
	return s
}

// Run resets every target and replays ds into the stores. The first error
// aborts the run; documents created before it are left in place.
func (s *Service) Run(ctx context.Context, ds *dataset.Dataset) (Report, error) {
	if ds == nil {
		return Report{State: StateIdle}, fmt.Errorf("run: %w: nil dataset", domain.ErrInvalidDataset)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	refs := reference.New()
	r := &run{
		svc:    s,
		ds:     ds,
		m:      newMachine(),
		refs:   refs,
		seeder: s.newSeeder(refs),
		log:    logger.FromContext(ctx),
		start:  time.Now(),
	}

	r.log.Info("dataset loaded",
		zap.Int("categories", len(ds.Categories)),
		zap.Int("customizations", len(ds.Customizations)),
		zap.Int("menu", len(ds.Menu)),
		zap.Int("links", ds.LinkCount()),
	)

	err := r.execute(ctx)
	report := r.report()
	s.metrics.Run(string(report.State))

	if err != nil {
		r.log.Error("seeding aborted",
			zap.String("failed_phase", string(report.FailedPhase)),
			zap.Int("created", report.Created()),
			zap.Int("deleted", report.Deleted()),
			zap.Duration("duration", report.Duration),
			zap.Error(err),
		)
		return report, err
	}

	r.log.Info("seeding finished",
		zap.String("state", string(report.State)),
		zap.Int("created", report.Created()),
		zap.Int("deleted", report.Deleted()),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// run holds the state of a single Run call.
type run struct {
	svc    *Service
	ds     *dataset.Dataset
	m      *machine
	refs   *reference.Resolver
	seeder Seeder
	log    *zap.Logger
	start  time.Time

	phases []PhaseReport
	failed State
	items  []domain.MenuItem
}

// counts is what a phase reports back.
type counts struct {
	deleted int
	created int
}

type step struct {
	state State
	fn    func(context.Context) (counts, error)
}

func (r *run) execute(ctx context.Context) error {
	steps := []step{
		{StateResetting, r.reset},
		{StateSeedingCategories, r.categories},
		{StateSeedingCustomizations, r.customizations},
		{StateSeedingMenu, r.menu},
		{StateSeedingLinks, r.links},
	}
	if r.svc.verify {
		steps = append(steps, step{StateVerifying, r.verify})
	}

	for _, st := range steps {
		if err := r.phase(ctx, st.state, st.fn); err != nil {
			return err
		}
	}
	return r.m.to(StateDone)
}

func (r *run) phase(ctx context.Context, state State, fn func(context.Context) (counts, error)) error {
	if err := r.m.to(state); err != nil {
		return err
	}
	ctx, log := logger.WithPhase(ctx, string(state))

	start := time.Now()
	c, err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	elapsed := time.Since(start)

	r.phases = append(r.phases, PhaseReport{
		Phase:    state,
		Deleted:  c.deleted,
		Created:  c.created,
		Duration: elapsed,
		Err:      err,
	})
	r.svc.metrics.Phase(string(state), elapsed)

	fields := []zap.Field{zap.Duration("duration", elapsed)}
	if state == StateResetting {
		fields = append(fields, zap.Int("deleted", c.deleted))
	} else {
		fields = append(fields, zap.Int("created", c.created))
	}

	if err != nil {
		r.failed = state
		if abortErr := r.m.to(StateAborted); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		log.Error("phase failed", append(fields, zap.Error(err))...)
		return fmt.Errorf("%s: %w", state, err)
	}

	log.Info("phase completed", fields...)
	return nil
}

func (r *run) reset(ctx context.Context) (counts, error) {
	var c counts
	for _, collectionID := range r.svc.targets.collections() {
		n, err := r.svc.resetter.ResetCollection(ctx, collectionID)
		c.deleted += n
		if err != nil {
			return c, err
		}
	}
	n, err := r.svc.resetter.ResetBucket(ctx, r.svc.targets.Bucket)
	c.deleted += n
	return c, err
}

func (r *run) categories(ctx context.Context) (counts, error) {
	out, err := r.seeder.Categories(ctx, r.ds.Categories)
	return counts{created: countIDs(out, func(c domain.Category) string { return c.ID })}, err
}

func (r *run) customizations(ctx context.Context) (counts, error) {
	out, err := r.seeder.Customizations(ctx, r.ds.Customizations)
	return counts{created: countIDs(out, func(c domain.Customization) string { return c.ID })}, err
}

func (r *run) menu(ctx context.Context) (counts, error) {
	out, err := r.seeder.Menu(ctx, r.ds.Menu)
	r.items = out
	return counts{created: countIDs(out, func(m domain.MenuItem) string { return m.ID })}, err
}

func (r *run) links(ctx context.Context) (counts, error) {
	out, err := r.seeder.Links(ctx, r.ds.Menu, r.items)
	return counts{created: countIDs(out, func(l domain.MenuCustomizationLink) string { return l.ID })}, err
}

// verify checks that every collection holds exactly as many documents as the dataset has records.
func (r *run) verify(ctx context.Context) (counts, error) {
	t := r.svc.targets
	want := []struct {
		collection string
		n          int
	}{
		{t.Categories, len(r.ds.Categories)},
		{t.Customizations, len(r.ds.Customizations)},
		{t.Menu, len(r.ds.Menu)},
		{t.MenuCustomizations, r.ds.LinkCount()},
	}
	for _, w := range want {
		got, err := r.svc.counter.Count(ctx, w.collection)
		if err != nil {
			return counts{}, err
		}
		if got != w.n {
			return counts{}, &domain.CountMismatchError{Collection: w.collection, Want: w.n, Got: got}
		}
	}
	logger.FromContext(ctx).Debug("references recorded",
		zap.Int("categories", r.refs.Len(domain.KindCategory)),
		zap.Int("customizations", r.refs.Len(domain.KindCustomization)),
	)
	return counts{}, nil
}

func (r *run) report() Report {
	return Report{
		State:       r.m.state,
		FailedPhase: r.failed,
		History:     append([]State(nil), r.m.history...),
		Phases:      r.phases,
		Duration:    time.Since(r.start),
	}
}

func countIDs[T any](items []T, id func(T) string) int {
	n := 0
	for _, it := range items {
		if id(it) != "" {
			n++
		}
	}
	return n
}
