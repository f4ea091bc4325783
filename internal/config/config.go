// Package config reads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the HTTP server.
type Config struct {
	HTTPPort  int
	LogLevel  string
	LogFormat string

	Model    string
	Taxonomy string // builtin name or path to a YAML file

	CacheBackend string // memory, redis, none
	CacheTTL     time.Duration
	RedisURL     string

	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	CompleteFindings bool
	StrictGrounding  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		Model:            getEnv("EVIDENTIA_MODEL", ""),
		Taxonomy:         getEnv("EVIDENTIA_TAXONOMY", "reference"),
		CacheBackend:     strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CacheTTL:         getEnvDuration("CACHE_TTL", 24*time.Hour),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 120*time.Second),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 2<<20)),
		CompleteFindings: getEnvBool("COMPLETE_FINDINGS", false),
		StrictGrounding:  getEnvBool("STRICT_GROUNDING", false),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	switch c.CacheBackend {
	case "memory", "none":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when CACHE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be memory, redis, or none: %q", c.CacheBackend))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive: %s", c.RequestTimeout))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive: %d", c.MaxBodyBytes))
	}
	if c.Taxonomy == "" {
		errs = append(errs, errors.New("EVIDENTIA_TAXONOMY must not be empty"))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
