// Package cache stores finished reports keyed by policy content hash.
// Caching is advisory: callers treat every cache error as a miss.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/evidentia/internal/report"
	"golang.org/x/sync/singleflight"
)

// Cache is a report store. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*report.Report, bool, error)
	Put(ctx context.Context, key string, r *report.Report) error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config selects and tunes a backend.
type Config struct {
	Backend  string
	TTL      time.Duration
	RedisURL string
	// Prefix namespaces redis keys. Defaults to "evidentia:report:".
	Prefix string
}

// New builds the backend named by cfg.Backend.
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemory(cfg.TTL), nil
	case BackendRedis:
		opts, err := ParseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cache.New: %w", err)
		}
		return NewRedis(opts, cfg.Prefix, cfg.TTL), nil
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("cache.New: unknown backend %q", cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*report.Report, bool, error) { return nil, false, nil }
func (Nop) Put(context.Context, string, *report.Report) error         { return nil }

// DefaultLoadTimeout bounds a shared computation when NewLoader is given no
// timeout.
const DefaultLoadTimeout = 2 * time.Minute

// Loader fronts a Cache so that concurrent misses on one key run the
// computation once. The computation is detached from every caller's
// cancellation; a caller that gives up stops waiting without failing the
// others.
type Loader struct {
	cache   Cache
	group   singleflight.Group
	timeout time.Duration
	logger  *slog.Logger
}

// LoadFunc computes a report on a miss. The bool result reports whether the
// report may be stored.
type LoadFunc func(ctx context.Context) (*report.Report, bool, error)

// NewLoader wraps c. A nil cache behaves like Nop. timeout bounds each shared
// computation; zero selects DefaultLoadTimeout.
func NewLoader(c Cache, timeout time.Duration, logger *slog.Logger) *Loader {
	if c == nil {
		c = Nop{}
	}
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{cache: c, timeout: timeout, logger: logger}
}

// Load returns the cached report for key or runs fn. The returned report is
// a private copy; hit reports whether it came from the cache.
func (l *Loader) Load(ctx context.Context, key string, fn LoadFunc) (r *report.Report, hit bool, err error) {
	if cached, ok := l.get(ctx, key); ok {
		return cached, true, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		if cached, ok := l.get(cctx, key); ok {
			return loaded{r: cached, hit: true}, nil
		}
		r, store, err := fn(cctx)
		if err != nil {
			return nil, err
		}
		if store {
			if err := l.cache.Put(cctx, key, r); err != nil {
				l.logger.Warn("cache write failed", "key", key, "error", err)
			}
		}
		return loaded{r: r}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		v := res.Val.(loaded)
		return clone(v.r), v.hit, nil
	}
}

type loaded struct {
	r   *report.Report
	hit bool
}

func (l *Loader) get(ctx context.Context, key string) (*report.Report, bool) {
	r, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok || r == nil {
		return nil, false
	}
	return clone(r), true
}

// clone copies the mutable parts of r so callers can adjust Meta or
// Findings without touching shared state.
func clone(r *report.Report) *report.Report {
	if r == nil {
		return nil
	}
	out := *r
	out.Findings = append([]report.Finding{}, r.Findings...)
	out.CategoryScores = make(map[string]float64, len(r.CategoryScores))
	for k, v := range r.CategoryScores {
		out.CategoryScores[k] = v
	}
	return &out
}
