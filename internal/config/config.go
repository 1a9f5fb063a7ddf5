package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// Store drivers.
const (
	DriverAppwrite = "appwrite"
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverMemory   = "memory"
)

// Config holds the seeder configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Collections CollectionsConfig `yaml:"collections"`
	Bucket      BucketConfig      `yaml:"bucket"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	Reset       WorkersConfig     `yaml:"reset"`
	Seed        WorkersConfig     `yaml:"seed"`
	Assets      AssetsConfig      `yaml:"assets"`
	Retry       RetryConfig       `yaml:"retry"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// StoreConfig selects and configures the document and blob store.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // appwrite (default), redis, valkey, memory
	Endpoint         string   `yaml:"endpoint"`
	ProjectID        string   `yaml:"project_id"`
	APIKey           string   `yaml:"api_key"`
	DatabaseID       string   `yaml:"database_id"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	PublicBaseURL    string   `yaml:"public_base_url"`
	RequestTimeout   int      `yaml:"request_timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CollectionsConfig names the target collections.
type CollectionsConfig struct {
	Categories         string `yaml:"categories"`
	Customizations     string `yaml:"customizations"`
	Menu               string `yaml:"menu"`
	MenuCustomizations string `yaml:"menu_customizations"`
}

// BucketConfig names the asset bucket and the URL rendering options.
type BucketConfig struct {
	ID        string       `yaml:"id"`
	Rendering db.Rendering `yaml:"rendering"`
}

// DatasetConfig locates the dataset file.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// WorkersConfig bounds a phase's parallelism.
type WorkersConfig struct {
	Workers int `yaml:"workers"`
}

// AssetsConfig controls image fetching.
type AssetsConfig struct {
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
	MaxBytes        int64  `yaml:"max_bytes"`
	UserAgent       string `yaml:"user_agent"`
}

// RetryConfig enables retries of transient remote failures. max_attempts 1 disables them.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms"`
}

// PipelineConfig controls the run as a whole.
type PipelineConfig struct {
	Verify     *bool `yaml:"verify"`      // default true
	TimeoutSec int   `yaml:"timeout_sec"` // 0 = no deadline
}

// MetricsConfig enables the Prometheus scrape endpoint when Port > 0.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverAppwrite
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "menuseed:"
	}
	if c.Store.RequestTimeout <= 0 {
		c.Store.RequestTimeout = 30
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Collections.Categories == "" {
		c.Collections.Categories = "categories"
	}
	if c.Collections.Customizations == "" {
		c.Collections.Customizations = "customizations"
	}
	if c.Collections.Menu == "" {
		c.Collections.Menu = "menu"
	}
	if c.Collections.MenuCustomizations == "" {
		c.Collections.MenuCustomizations = "menu_customizations"
	}
	if c.Bucket.ID == "" {
		c.Bucket.ID = "assets"
	}
	if c.Dataset.Path == "" {
		c.Dataset.Path = "data/dummy.yaml"
	}
	if c.Reset.Workers <= 0 {
		c.Reset.Workers = 8
	}
	if c.Seed.Workers <= 0 {
		c.Seed.Workers = 4
	}
	if c.Assets.FetchTimeoutSec <= 0 {
		c.Assets.FetchTimeoutSec = 30
	}
	if c.Assets.MaxBytes <= 0 {
		c.Assets.MaxBytes = 10 << 20
	}
	if c.Assets.UserAgent == "" {
		c.Assets.UserAgent = "menuseed"
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = 200
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = 5000
	}
	if c.Pipeline.Verify == nil {
		v := true
		c.Pipeline.Verify = &v
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Store.Driver {
	case DriverAppwrite:
		if c.Store.Endpoint == "" {
			result = multierror.Append(result, fmt.Errorf("store.endpoint is required for the appwrite driver"))
		}
		if c.Store.ProjectID == "" {
			result = multierror.Append(result, fmt.Errorf("store.project_id is required for the appwrite driver"))
		}
		if c.Store.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("store.api_key is required for the appwrite driver"))
		}
		if c.Store.DatabaseID == "" {
			result = multierror.Append(result, fmt.Errorf("store.database_id is required for the appwrite driver"))
		}
	case DriverRedis, DriverValkey:
		if len(c.Store.Addrs) == 0 {
			result = multierror.Append(result, fmt.Errorf("store.addrs is required for the %s driver", c.Store.Driver))
		}
		if c.Store.PublicBaseURL == "" {
			result = multierror.Append(result, fmt.Errorf("store.public_base_url is required for the %s driver", c.Store.Driver))
		}
	case DriverMemory:
	default:
		result = multierror.Append(result, fmt.Errorf(
			"store.driver must be one of appwrite, redis, valkey, memory, got %q", c.Store.Driver,
		))
	}

	seen := map[string]string{}
	for _, col := range []struct{ key, id string }{
		{"collections.categories", c.Collections.Categories},
		{"collections.customizations", c.Collections.Customizations},
		{"collections.menu", c.Collections.Menu},
		{"collections.menu_customizations", c.Collections.MenuCustomizations},
	} {
		if other, ok := seen[col.id]; ok {
			result = multierror.Append(result, fmt.Errorf("%s duplicates %s (%q)", col.key, other, col.id))
		}
		seen[col.id] = col.key
	}

	r := c.Bucket.Rendering
	if r.Width < 0 || r.Height < 0 {
		result = multierror.Append(result, fmt.Errorf("bucket.rendering width and height must be >= 0"))
	}
	if r.Quality < 0 || r.Quality > 100 {
		result = multierror.Append(result, fmt.Errorf("bucket.rendering.quality must be between 0 and 100, got %d", r.Quality))
	}
	if c.Retry.MaxBackoffMs < c.Retry.InitialBackoffMs {
		result = multierror.Append(result, fmt.Errorf(
			"retry.max_backoff_ms (%d) must be >= retry.initial_backoff_ms (%d)",
			c.Retry.MaxBackoffMs, c.Retry.InitialBackoffMs,
		))
	}
	if c.Pipeline.TimeoutSec < 0 {
		result = multierror.Append(result, fmt.Errorf("pipeline.timeout_sec must be >= 0, got %d", c.Pipeline.TimeoutSec))
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port))
	}

	return result.ErrorOrNil()
}

// RequestTimeout bounds a single store call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Store.RequestTimeout) * time.Second
}

// ReadinessTimeout bounds the wait for the store at startup.
func (c *Config) ReadinessTimeout() time.Duration {
	return time.Duration(c.Store.ReadinessTimeout) * time.Second
}

// FetchTimeout bounds a single asset download.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Assets.FetchTimeoutSec) * time.Second
}

// RunTimeout bounds the whole pipeline. Zero means no deadline.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Pipeline.TimeoutSec) * time.Second
}

// Backoff returns the initial and maximum retry delay.
func (c *Config) Backoff() (initial, maxDelay time.Duration) {
	return time.Duration(c.Retry.InitialBackoffMs) * time.Millisecond,
		time.Duration(c.Retry.MaxBackoffMs) * time.Millisecond
}

// VerifyEnabled reports whether the post-run count check runs.
func (c *Config) VerifyEnabled() bool {
	return c.Pipeline.Verify == nil || *c.Pipeline.Verify
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
