package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "LOG_LEVEL", "LOG_FORMAT", "EVIDENTIA_MODEL", "EVIDENTIA_TAXONOMY",
		"CACHE_BACKEND", "CACHE_TTL", "REDIS_URL", "REQUEST_TIMEOUT", "MAX_BODY_BYTES", "COMPLETE_FINDINGS", "STRICT_GROUNDING"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg := Load()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "reference", cfg.Taxonomy)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(2<<20), cfg.MaxBodyBytes)
	assert.False(t, cfg.CompleteFindings)
	require.NoError(t, cfg.Validate())
}

func TestLoadIgnoresUnparsable(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("COMPLETE_FINDINGS", "perhaps")
	cfg := Load()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.False(t, cfg.CompleteFindings)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EVIDENTIA_MODEL", "openrouter:openai/gpt-4o-mini")
	t.Setenv("EVIDENTIA_TAXONOMY", "reference")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("REQUEST_TIMEOUT", "30")
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("COMPLETE_FINDINGS", "true")
	t.Setenv("STRICT_GROUNDING", "1")

	cfg := Load()
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "openrouter:openai/gpt-4o-mini", cfg.Model)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.True(t, cfg.CompleteFindings)
	assert.True(t, cfg.StrictGrounding)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{
		HTTPPort:       8080,
		Taxonomy:       "reference",
		CacheBackend:   "memory",
		RequestTimeout: time.Second,
		MaxBodyBytes:   10,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTPPort = 70000 }, "HTTP_PORT"},
		{"backend", func(c *Config) { c.CacheBackend = "memcached" }, "CACHE_BACKEND"},
		{"redis url", func(c *Config) { c.CacheBackend = "redis"; c.RedisURL = "" }, "REDIS_URL"},
		{"timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
		{"body", func(c *Config) { c.MaxBodyBytes = 0 }, "MAX_BODY_BYTES"},
		{"taxonomy", func(c *Config) { c.Taxonomy = "" }, "EVIDENTIA_TAXONOMY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "MAX_BODY_BYTES")
}
