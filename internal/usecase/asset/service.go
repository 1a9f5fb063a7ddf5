// Package asset copies remote images into the blob store.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menuseed/internal/db"
	"github.com/kailas-cloud/menuseed/internal/domain"
	"github.com/kailas-cloud/menuseed/internal/logger"
	"github.com/kailas-cloud/menuseed/internal/metrics"
	"github.com/kailas-cloud/menuseed/internal/retry"
)

// Defaults applied by New.
const (
	DefaultMaxBytes     int64 = 10 << 20
	DefaultFetchTimeout       = 30 * time.Second

	fallbackName = "asset"
	fallbackMIME = "application/octet-stream"
)

// Config tunes the uploader.
type Config struct {
	Bucket       string
	Rendering    db.Rendering
	FetchTimeout time.Duration
	MaxBytes     int64
	UserAgent    string
}

// Service fetches an asset by URL and republishes it through the blob store.
type Service struct {
	blobs        BlobStore
	client       *http.Client
	cfg          Config
	storeTimeout time.Duration
	policy       retry.Policy
	metrics      *metrics.Seed
}

// New creates an uploader. A nil client means http.DefaultClient.
func New(blobs BlobStore, client *http.Client, cfg Config) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Service{
		blobs:  blobs,
		client: client,
		cfg:    cfg,
		policy: retry.None{},
	}
}

// WithStoreTimeout bounds each blob store call. Zero disables the bound.
func (s *Service) WithStoreTimeout(d time.Duration) *Service {
	s.storeTimeout = d
	return s
}

// WithRetry sets the policy wrapping the fetch and the upload.
func (s *Service) WithRetry(p retry.Policy) *Service {
	if p != nil {
		s.policy = p
	}
	return s
}

// WithMetrics enables asset counters.
func (s *Service) WithMetrics(m *metrics.Seed) *Service {
	s.metrics = m
	return s
}

// Upload fetches sourceURL, stores the bytes under a generated blob ID and
// returns a URL that serves them. Nothing is stored when the fetch fails.
func (s *Service) Upload(ctx context.Context, sourceURL string) (string, error) {
	var file openapi_types.File
	var mimeType string
	err := s.policy.Do(ctx, "fetchAsset", func(ctx context.Context) error {
		var err error
		file, mimeType, err = s.fetch(ctx, sourceURL)
		return err
	})
	if err != nil {
		s.metrics.Asset(metrics.AssetFetchFailed, 0)
		return "", err
	}

	data, err := file.Bytes()
	if err != nil {
		return "", &domain.FetchError{URL: sourceURL, Err: err}
	}

	var blobID string
	err = s.policy.Do(ctx, db.OpUploadBlob, func(ctx context.Context) error {
		ctx, cancel := bound(ctx, s.storeTimeout)
		defer cancel()
		var err error
		blobID, err = s.blobs.UploadBlob(ctx, s.cfg.Bucket, data, file.Filename(), mimeType)
		return err
	})
	if err != nil {
		s.metrics.Asset(metrics.AssetUploadFailed, 0)
		return "", &domain.UploadError{URL: sourceURL, Err: err}
	}

	resolved, err := s.blobs.ResolvableURL(s.cfg.Bucket, blobID, s.cfg.Rendering)
	if err != nil {
		s.metrics.Asset(metrics.AssetUploadFailed, 0)
		return "", &domain.UploadError{URL: sourceURL, Err: err}
	}

	s.metrics.Asset(metrics.AssetUploaded, file.FileSize())
	logger.FromContext(ctx).Debug("asset uploaded",
		zap.String("source", sourceURL),
		zap.String("blob_id", blobID),
		zap.String("mime", mimeType),
		zap.Int64("bytes", file.FileSize()),
	)
	return resolved, nil
}

func (s *Service) fetch(ctx context.Context, sourceURL string) (openapi_types.File, string, error) {
	var file openapi_types.File

	u, err := url.Parse(sourceURL)
	if err != nil {
		return file, "", &domain.FetchError{URL: sourceURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return file, "", &domain.FetchError{URL: sourceURL, Err: err}
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return file, "", &domain.FetchError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return file, "", &domain.FetchError{
			URL:        sourceURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBytes+1))
	if err != nil {
		return file, "", &domain.FetchError{URL: sourceURL, Err: err}
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return file, "", &domain.FetchError{URL: sourceURL, Err: fmt.Errorf("body exceeds %d bytes", s.cfg.MaxBytes)}
	}
	if len(data) == 0 {
		return file, "", &domain.FetchError{URL: sourceURL, Err: errors.New("empty body")}
	}

	file.InitFromBytes(data, fileName(u))
	return file, contentType(resp.Header), nil
}

// fileName is the last path segment of u.
func fileName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return fallbackName
	}
	return name
}

func contentType(h http.Header) string {
	if ct := strings.TrimSpace(h.Get("Content-Type")); ct != "" {
		return ct
	}
	return fallbackMIME
}

func bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
