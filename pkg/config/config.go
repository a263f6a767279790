// Package config loads VelesDB's process-level configuration: where a
// collection's files live, how it logs, how its worker pool and query
// admission controls are sized, and a handful of feature toggles.
//
// Layering is defaults, then an optional config.yaml (gopkg.in/
// yaml.v3), then VELESDB_-prefixed environment variables, then
// Validate(). Any layer may be absent; only the defaults are required.
package config

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cyberlife-coder/velesdb/internal/obslog"
)

// Config is VelesDB's top-level process configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Pool     PoolConfig     `yaml:"pool"`
	Query    QueryConfig    `yaml:"query"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Features FeatureFlags   `yaml:"features"`
}

// StorageConfig controls where collection directories are created and
// opened from by default.
type StorageConfig struct {
	// DataDir is the default data directory. Validate rejects an empty
	// value; cmd/velesctl takes collection paths directly and does not
	// read it.
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig controls internal/obslog's output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error, silent.
	Level string `yaml:"level"`
	// Output is "stdout", "stderr", or a file path.
	Output string `yaml:"output"`
}

// PoolConfig mirrors internal/workerpool.Config.
type PoolConfig struct {
	Enabled bool `yaml:"enabled"`
	Workers int  `yaml:"workers"`
}

// QueryConfig sizes the query cache and the admission-control guards
// pkg/guard and pkg/collection's QueryContext enforce.
type QueryConfig struct {
	CacheSize             int           `yaml:"cache_size"`
	CacheTTL              time.Duration `yaml:"cache_ttl"`
	RateLimitPerSecond    float64       `yaml:"rate_limit_per_second"`
	RateLimitBurst        float64       `yaml:"rate_limit_burst"`
	BreakerFailThreshold  int           `yaml:"breaker_fail_threshold"`
	BreakerCooldown       time.Duration `yaml:"breaker_cooldown"`
	MaxTraversalDepth     int           `yaml:"max_traversal_depth"`
	MaxResultCardinality  int           `yaml:"max_result_cardinality"`
}

// RuntimeConfig tunes the Go runtime itself, applied once at startup.
type RuntimeConfig struct {
	// MemoryLimit is a human-readable soft memory limit ("2GB", "512MB",
	// "0" or "unlimited" for no limit), mapped to GOMEMLIMIT.
	MemoryLimit string `yaml:"memory_limit"`
	// GCPercent maps to GOGC. Zero leaves the Go default (100) in place.
	GCPercent int `yaml:"gc_percent"`
}

// FeatureFlags holds process-wide feature defaults. They are loaded and
// validated here; pkg/collection does not read them and takes its own
// settings from pkg/collection.Options and Config.
type FeatureFlags struct {
	// AutoReindexEnabled is the process-wide auto-reindex default.
	// pkg/collection.DefaultConfig sets AutoReindex.Enabled on its own
	// and does not consult this flag.
	AutoReindexEnabled bool `yaml:"auto_reindex_enabled"`
	// HybridSearchDefaultAlpha is a default vector weight for hybrid
	// search, which Validate requires to lie in [0, 1]. cmd/velesctl
	// has no hybrid-search command and does not read it.
	HybridSearchDefaultAlpha float64 `yaml:"hybrid_search_default_alpha"`
}

// DefaultConfig returns VelesDB's out-of-the-box configuration: ./data
// for data, info-level logging to stderr, one worker per CPU,
// a generous query cache and rate limit, and auto-reindex on.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{DataDir: "./data"},
		Logging: LoggingConfig{Level: "info", Output: "stderr"},
		Pool:    PoolConfig{Enabled: true, Workers: 0},
		Query: QueryConfig{
			CacheSize:            256,
			CacheTTL:             time.Minute,
			RateLimitPerSecond:   1000,
			RateLimitBurst:       2000,
			BreakerFailThreshold: 5,
			BreakerCooldown:      30 * time.Second,
			MaxTraversalDepth:    100,
			MaxResultCardinality: 100_000,
		},
		Runtime: RuntimeConfig{MemoryLimit: "0", GCPercent: 0},
		Features: FeatureFlags{
			AutoReindexEnabled:       true,
			HybridSearchDefaultAlpha: 0.5,
		},
	}
}

// Load builds a Config starting from DefaultConfig, merging path (a
// YAML file) over it if path is non-empty and exists, then applying
// VELESDB_-prefixed environment variable overrides, then validating.
// A missing path is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Storage.DataDir = getEnv("VELESDB_DATA_DIR", c.Storage.DataDir)
	c.Logging.Level = getEnv("VELESDB_LOG_LEVEL", c.Logging.Level)
	c.Logging.Output = getEnv("VELESDB_LOG_OUTPUT", c.Logging.Output)
	c.Pool.Enabled = getEnvBool("VELESDB_POOL_ENABLED", c.Pool.Enabled)
	c.Pool.Workers = getEnvInt("VELESDB_POOL_WORKERS", c.Pool.Workers)
	c.Query.CacheSize = getEnvInt("VELESDB_QUERY_CACHE_SIZE", c.Query.CacheSize)
	c.Query.CacheTTL = getEnvDuration("VELESDB_QUERY_CACHE_TTL", c.Query.CacheTTL)
	c.Query.RateLimitPerSecond = getEnvFloat("VELESDB_RATE_LIMIT_PER_SECOND", c.Query.RateLimitPerSecond)
	c.Query.RateLimitBurst = getEnvFloat("VELESDB_RATE_LIMIT_BURST", c.Query.RateLimitBurst)
	c.Query.BreakerFailThreshold = getEnvInt("VELESDB_BREAKER_FAIL_THRESHOLD", c.Query.BreakerFailThreshold)
	c.Query.BreakerCooldown = getEnvDuration("VELESDB_BREAKER_COOLDOWN", c.Query.BreakerCooldown)
	c.Query.MaxTraversalDepth = getEnvInt("VELESDB_MAX_TRAVERSAL_DEPTH", c.Query.MaxTraversalDepth)
	c.Query.MaxResultCardinality = getEnvInt("VELESDB_MAX_RESULT_CARDINALITY", c.Query.MaxResultCardinality)
	c.Runtime.MemoryLimit = getEnv("VELESDB_MEMORY_LIMIT", c.Runtime.MemoryLimit)
	c.Runtime.GCPercent = getEnvInt("VELESDB_GC_PERCENT", c.Runtime.GCPercent)
	c.Features.AutoReindexEnabled = getEnvBool("VELESDB_AUTO_REINDEX_ENABLED", c.Features.AutoReindexEnabled)
	c.Features.HybridSearchDefaultAlpha = getEnvFloat("VELESDB_HYBRID_SEARCH_DEFAULT_ALPHA", c.Features.HybridSearchDefaultAlpha)
}

// Validate reports the first configuration error found, if any.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("config: storage.data_dir must not be empty")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "silent":
	default:
		return fmt.Errorf("config: invalid logging.level %q", c.Logging.Level)
	}
	if c.Query.CacheSize < 0 {
		return fmt.Errorf("config: query.cache_size must not be negative")
	}
	if c.Query.RateLimitPerSecond < 0 || c.Query.RateLimitBurst < 0 {
		return fmt.Errorf("config: query rate limit values must not be negative")
	}
	if c.Features.HybridSearchDefaultAlpha < 0 || c.Features.HybridSearchDefaultAlpha > 1 {
		return fmt.Errorf("config: features.hybrid_search_default_alpha must be in [0,1]")
	}
	return nil
}

// String returns a representation safe for logging: there are no
// secrets in this Config, so it's just a compact summary.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DataDir: %s, LogLevel: %s, PoolWorkers: %d, RateLimit: %g/s}",
		c.Storage.DataDir, c.Logging.Level, c.Pool.Workers, c.Query.RateLimitPerSecond)
}

// BuildLogger resolves Logging into an obslog.Logger and the file
// handle backing it, if Output names a file. The caller must Close the
// returned closer (a no-op for stdout/stderr) when done logging.
func (l LoggingConfig) BuildLogger() (obslog.Logger, func() error, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, nil, err
	}
	switch strings.ToLower(l.Output) {
	case "", "stderr":
		return obslog.New(os.Stderr, level), func() error { return nil }, nil
	case "stdout":
		return obslog.New(os.Stdout, level), func() error { return nil }, nil
	default:
		f, err := os.OpenFile(l.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open log output %s: %w", l.Output, err)
		}
		return obslog.New(f, level), f.Close, nil
	}
}

func parseLevel(s string) (obslog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return obslog.LevelDebug, nil
	case "", "info":
		return obslog.LevelInfo, nil
	case "warn":
		return obslog.LevelWarn, nil
	case "error":
		return obslog.LevelError, nil
	case "silent":
		return obslog.LevelSilent, nil
	default:
		return obslog.LevelInfo, fmt.Errorf("config: unknown logging level %q", s)
	}
}

// ApplyRuntime applies Runtime's memory limit and GC percent to the
// current process. Call once, early in main(), before heavy allocation.
func (r RuntimeConfig) ApplyRuntime() {
	if bytes := parseMemorySize(r.MemoryLimit); bytes > 0 {
		debug.SetMemoryLimit(bytes)
	}
	if r.GCPercent > 0 {
		debug.SetGCPercent(r.GCPercent)
	}
}

// parseMemorySize parses a human-readable memory size ("512MB", "2GB",
// "0", "unlimited") into bytes. Returns 0 (no limit) for anything it
// doesn't recognize.
func parseMemorySize(s string) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" || s == "0" || s == "UNLIMITED" {
		return 0
	}
	s = strings.TrimSuffix(s, "B")
	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "T"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "T")
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val * multiplier
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
