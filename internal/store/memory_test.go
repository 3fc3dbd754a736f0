package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-proxy/internal/weather"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore(scope Scope) (*MemoryStore, *fakeClock) {
	clk := &fakeClock{now: time.UnixMilli(1_000_000)}
	return NewMemoryStore(DefaultTTL, WithClock(clk.Now), WithScope(scope)), clk
}

func report(name string) weather.Cached {
	return weather.Cached{Report: weather.Report{"name": name}, Lang: "en"}
}

func TestIsValidBeforeAnyWrite(t *testing.T) {
	s, clk := newTestStore(ScopeGlobal)

	assert.False(t, s.IsValid(clk.now))
	_, ok := s.Fresh("berlin")
	assert.False(t, ok)
}

func TestIsValidTTLBoundary(t *testing.T) {
	s, clk := newTestStore(ScopeGlobal)
	s.Put("Berlin", report("Berlin"))

	last, ok := s.LastUpdated()
	require.True(t, ok)
	assert.Equal(t, clk.now, last)

	assert.True(t, s.IsValid(last.Add(DefaultTTL-time.Millisecond)))
	assert.False(t, s.IsValid(last.Add(DefaultTTL)))
}

func TestGetNormalizesCity(t *testing.T) {
	s, _ := newTestStore(ScopeGlobal)
	s.Put("  Berlin ", report("Berlin"))

	got, ok := s.Get("BERLIN")
	require.True(t, ok)
	assert.Equal(t, "Berlin", got["name"])
	assert.Equal(t, 1, s.Len())

	_, ok = s.Get("Paris")
	assert.False(t, ok)
}

func TestPutReplacesEntry(t *testing.T) {
	s, _ := newTestStore(ScopeGlobal)
	s.Put("berlin", report("old"))
	s.Put("Berlin", report("new"))

	got, ok := s.Get("berlin")
	require.True(t, ok)
	assert.Equal(t, "new", got["name"])
	assert.Equal(t, 1, s.Len())
}

func TestGlobalScopeWriteRevivesStaleEntries(t *testing.T) {
	s, clk := newTestStore(ScopeGlobal)
	s.Put("Berlin", report("Berlin"))

	clk.now = clk.now.Add(DefaultTTL + time.Minute)
	_, ok := s.Fresh("Berlin")
	require.False(t, ok)

	s.Put("Paris", report("Paris"))

	got, ok := s.Fresh("Berlin")
	require.True(t, ok)
	assert.Equal(t, "Berlin", got.Report["name"])
	assert.Equal(t, "en", got.Lang)
}

func TestPerKeyScopeKeepsEntriesIndependent(t *testing.T) {
	s, clk := newTestStore(ScopePerKey)
	s.Put("Berlin", report("Berlin"))

	clk.now = clk.now.Add(DefaultTTL - time.Millisecond)
	_, ok := s.Fresh("Berlin")
	require.True(t, ok)

	clk.now = clk.now.Add(time.Millisecond)
	s.Put("Paris", report("Paris"))

	_, ok = s.Fresh("Berlin")
	assert.False(t, ok)
	_, ok = s.Fresh("paris")
	assert.True(t, ok)
}

func TestParseScope(t *testing.T) {
	got, err := ParseScope("per-key")
	require.NoError(t, err)
	assert.Equal(t, ScopePerKey, got)

	_, err = ParseScope("sometimes")
	assert.Error(t, err)
}

func TestNonPositiveTTLUsesDefault(t *testing.T) {
	s := NewMemoryStore(0)
	assert.Equal(t, DefaultTTL, s.ttl)
	assert.Equal(t, ScopeGlobal, s.scope)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Put("berlin", report("Berlin"))
				s.Fresh("berlin")
				s.Get("berlin")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.Len())
}
