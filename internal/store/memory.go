package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-proxy/internal/weather"
)

// DefaultTTL is how long cached reports stay valid.
const DefaultTTL = 10 * time.Minute

// Scope selects what a TTL is measured from.
type Scope string

const (
	// ScopeGlobal measures every entry against the time of the most recent
	// write to any key. A write for one city makes every other entry valid again.
	ScopeGlobal Scope = "global"
	// ScopePerKey measures each entry against its own write time.
	ScopePerKey Scope = "per-key"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeGlobal, ScopePerKey:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown cache scope %q", s)
	}
}

type entry struct {
	cached   weather.Cached
	storedAt time.Time
}

// MemoryStore keeps the last report per normalized city name.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city
	data map[string]entry

	lastUpdated time.Time
	written     bool

	ttl   time.Duration
	scope Scope
	now   func() time.Time
}

// Option customizes a MemoryStore.
type Option func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScope selects the TTL scope. The default is ScopeGlobal.
func WithScope(scope Scope) Option {
	return func(s *MemoryStore) {
		if scope != "" {
			s.scope = scope
		}
	}
}

// NewMemoryStore creates a new MemoryStore. A ttl <= 0 falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration, opts ...Option) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		data:  make(map[string]entry),
		ttl:   ttl,
		scope: ScopeGlobal,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeCity is the key under which a city is stored.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// IsValid reports whether a write has happened and now is less than one TTL
// after the most recent write to any key.
func (s *MemoryStore) IsValid(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.written && now.Sub(s.lastUpdated) < s.ttl
}

// Get returns the stored report for city regardless of its age.
func (s *MemoryStore) Get(city string) (weather.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[NormalizeCity(city)]
	if !ok {
		return nil, false
	}
	return e.cached.Report, true
}

// Put stores an entry for city and moves the shared update time to now.
func (s *MemoryStore) Put(city string, c weather.Cached) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[NormalizeCity(city)] = entry{cached: c, storedAt: now}
	s.lastUpdated = now
	s.written = true
}

// Fresh implements weather.Cache.
func (s *MemoryStore) Fresh(city string) (weather.Cached, bool) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[NormalizeCity(city)]
	if !ok {
		return weather.Cached{}, false
	}

	if s.scope == ScopeGlobal {
		if !s.written || now.Sub(s.lastUpdated) >= s.ttl {
			return weather.Cached{}, false
		}
		return e.cached, true
	}

	if now.Sub(e.storedAt) >= s.ttl {
		return weather.Cached{}, false
	}
	return e.cached, true
}

// LastUpdated returns the time of the most recent write and whether one happened.
func (s *MemoryStore) LastUpdated() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated, s.written
}

// Len returns the number of cached cities.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ weather.Cache = (*MemoryStore)(nil)
