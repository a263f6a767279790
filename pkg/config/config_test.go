package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Storage.DataDir, cfg.Storage.DataDir)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "storage:\n  data_dir: /var/lib/velesdb\nlogging:\n  level: debug\nquery:\n  cache_size: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/velesdb", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Query.CacheSize)
	// fields the file didn't set keep their defaults
	assert.Equal(t, DefaultConfig().Query.RateLimitPerSecond, cfg.Query.RateLimitPerSecond)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	t.Setenv("VELESDB_LOG_LEVEL", "error")
	t.Setenv("VELESDB_QUERY_CACHE_TTL", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Query.CacheTTL)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeAlpha(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features.HybridSearchDefaultAlpha = 1.5
	require.Error(t, cfg.Validate())
}

func TestBuildLoggerStderrDefault(t *testing.T) {
	logger, closer, err := LoggingConfig{}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NoError(t, closer())
}

func TestBuildLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "velesdb.log")
	logger, closer, err := LoggingConfig{Level: "debug", Output: path}.BuildLogger()
	require.NoError(t, err)
	logger.Infof("hello %s", "world")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")
}

func TestParseMemorySize(t *testing.T) {
	assert.Equal(t, int64(0), parseMemorySize("0"))
	assert.Equal(t, int64(0), parseMemorySize("unlimited"))
	assert.Equal(t, int64(1024), parseMemorySize("1KB"))
	assert.Equal(t, int64(2*1024*1024*1024), parseMemorySize("2GB"))
}
