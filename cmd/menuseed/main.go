package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menuseed/internal/config"
	"github.com/kailas-cloud/menuseed/internal/db"
	dbAppwrite "github.com/kailas-cloud/menuseed/internal/db/appwrite"
	dbMemory "github.com/kailas-cloud/menuseed/internal/db/memory"
	dbRedis "github.com/kailas-cloud/menuseed/internal/db/redis"
	"github.com/kailas-cloud/menuseed/internal/domain/dataset"
	"github.com/kailas-cloud/menuseed/internal/domain/reference"
	logpkg "github.com/kailas-cloud/menuseed/internal/logger"
	"github.com/kailas-cloud/menuseed/internal/metrics"
	"github.com/kailas-cloud/menuseed/internal/repository/catalog"
	"github.com/kailas-cloud/menuseed/internal/retry"
	"github.com/kailas-cloud/menuseed/internal/usecase/asset"
	"github.com/kailas-cloud/menuseed/internal/usecase/pipeline"
	"github.com/kailas-cloud/menuseed/internal/usecase/reset"
	"github.com/kailas-cloud/menuseed/internal/usecase/seed"
	"github.com/kailas-cloud/menuseed/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting menuseed", append(version.Fields(),
		zap.String("env", env),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("dataset", cfg.Dataset.Path),
	)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Port > 0 {
		srv := metrics.Serve(cfg.Metrics.Port, reg, logger)
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	httpClient := &http.Client{Transport: m.RoundTripper(http.DefaultTransport)}

	store, err := newStore(cfg, httpClient)
	if err != nil {
		logger.Error("Failed to create store", zap.Error(err))
		return 1
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, cfg.ReadinessTimeout()); err != nil {
		logger.Error("Store not ready", zap.Error(err))
		return 1
	}
	logger.Info("Connected to store")

	ds, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		logger.Error("Failed to load dataset", zap.Error(err))
		return 1
	}

	policy := newRetryPolicy(cfg, logger)

	repo := catalog.New(store, catalog.Collections{
		Categories:         cfg.Collections.Categories,
		Customizations:     cfg.Collections.Customizations,
		Menu:               cfg.Collections.Menu,
		MenuCustomizations: cfg.Collections.MenuCustomizations,
	}).WithTimeout(cfg.RequestTimeout()).WithRetry(policy)

	uploader := asset.New(store, httpClient, asset.Config{
		Bucket:       cfg.Bucket.ID,
		Rendering:    cfg.Bucket.Rendering,
		FetchTimeout: cfg.FetchTimeout(),
		MaxBytes:     cfg.Assets.MaxBytes,
		UserAgent:    cfg.Assets.UserAgent,
	}).WithStoreTimeout(cfg.RequestTimeout()).WithRetry(policy).WithMetrics(m)

	resetter := reset.New(store, cfg.Reset.Workers).
		WithTimeout(cfg.RequestTimeout()).
		WithRetry(policy).
		WithMetrics(m)

	newSeeder := func(refs *reference.Resolver) pipeline.Seeder {
		return seed.New(repo, uploader, refs, cfg.Seed.Workers).WithMetrics(m)
	}

	orchestrator := pipeline.New(resetter, newSeeder, repo, pipeline.Targets{
		Categories:         cfg.Collections.Categories,
		Customizations:     cfg.Collections.Customizations,
		Menu:               cfg.Collections.Menu,
		MenuCustomizations: cfg.Collections.MenuCustomizations,
		Bucket:             cfg.Bucket.ID,
	}).WithVerify(cfg.VerifyEnabled()).WithTimeout(cfg.RunTimeout()).WithMetrics(m)

	report, err := orchestrator.Run(ctx, ds)
	if err != nil || report.State != pipeline.StateDone {
		return 1
	}
	return 0
}

// newStore creates the document and blob store for the configured driver.
func newStore(cfg config.Config, httpClient *http.Client) (db.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverAppwrite:
		return dbAppwrite.NewStore(dbAppwrite.Config{
			Endpoint:   cfg.Store.Endpoint,
			ProjectID:  cfg.Store.ProjectID,
			APIKey:     cfg.Store.APIKey,
			DatabaseID: cfg.Store.DatabaseID,
			HTTPClient: httpClient,
		})
	case config.DriverRedis, config.DriverValkey:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:         cfg.Store.Addrs,
			Password:      cfg.Store.Password,
			KeyPrefix:     cfg.Store.KeyPrefix,
			PublicBaseURL: cfg.Store.PublicBaseURL,
		})
	case config.DriverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, errors.New("unknown store driver " + cfg.Store.Driver)
	}
}

func newRetryPolicy(cfg config.Config, logger *zap.Logger) retry.Policy {
	if cfg.Retry.MaxAttempts <= 1 {
		return retry.None{}
	}
	initial, maxDelay := cfg.Backoff()
	return retry.Backoff{
		Attempts: cfg.Retry.MaxAttempts,
		Initial:  initial,
		Max:      maxDelay,
		OnRetry: func(op string, attempt int, err error) {
			logger.Warn("Retrying remote call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
	}
}
