package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dshills/evidentia/internal/report"
)

// DefaultTTL applies when a backend is created with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// Memory is an in-process cache with expiry.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a cache whose entries expire after ttl. Expired entries
// are purged every ttl/2.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{c: gocache.New(ttl, ttl/2)}
}

func (m *Memory) Get(_ context.Context, key string) (*report.Report, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return clone(v.(*report.Report)), true, nil
}

func (m *Memory) Put(_ context.Context, key string, r *report.Report) error {
	m.c.SetDefault(key, clone(r))
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (m *Memory) Len() int { return m.c.ItemCount() }
