package weather_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/weather-proxy/internal/store"
	"github.com/i474232898/weather-proxy/internal/weather"
)

type fakeProvider struct {
	mu      sync.Mutex
	queries []weather.Query
	report  weather.Report
	err     error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Current(_ context.Context, q weather.Query) (weather.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, q)
	if p.err != nil {
		return nil, p.err
	}
	return p.report, nil
}

func (p *fakeProvider) calls() []weather.Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]weather.Query(nil), p.queries...)
}

type clock struct{ now time.Time }

func newClock() *clock { return &clock{now: time.Unix(1_700_000_000, 0)} }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func berlinReport() weather.Report {
	return weather.Report{
		"name": "Berlin",
		"main": map[string]any{"temp": 12.3, "humidity": 70.0},
	}
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func newService(t *testing.T, p weather.Provider, clk *clock) (*weather.Service, *store.MemoryStore) {
	t.Helper()
	cache := store.NewMemoryStore(store.DefaultTTL, store.WithClock(clk.Now))
	svc := weather.NewService(cache, p, weather.WithLogger(zaptest.NewLogger(t)))
	return svc, cache
}

func TestFetchProjectsRequestedFields(t *testing.T) {
	p := &fakeProvider{report: berlinReport()}
	svc, _ := newService(t, p, newClock())

	got, err := svc.Fetch(context.Background(), weather.LookupRequest{
		City:   "Berlin",
		Fields: []string{"temp", "humidity"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"temp":12.3,"humidity":70}`, encode(t, got))

	calls := p.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Berlin", calls[0].City)
	assert.Nil(t, calls[0].Coordinates)
	assert.Equal(t, weather.DefaultLang, calls[0].Lang)
}

func TestFetchServesRepeatFromCache(t *testing.T) {
	p := &fakeProvider{report: berlinReport()}
	clk := newClock()
	svc, _ := newService(t, p, clk)
	ctx := context.Background()

	_, err := svc.Fetch(ctx, weather.LookupRequest{City: "Berlin", Fields: []string{"temp"}})
	require.NoError(t, err)

	clk.Advance(9 * time.Minute)
	got, err := svc.Fetch(ctx, weather.LookupRequest{City: "  berlin ", Fields: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Berlin"}`, encode(t, got))
	assert.Len(t, p.calls(), 1)

	clk.Advance(time.Minute)
	_, err = svc.Fetch(ctx, weather.LookupRequest{City: "Berlin"})
	require.NoError(t, err)
	assert.Len(t, p.calls(), 2)
}

func TestFetchByCoordinatesIsNotCached(t *testing.T) {
	p := &fakeProvider{report: berlinReport()}
	svc, cache := newService(t, p, newClock())
	ctx := context.Background()
	req := weather.LookupRequest{
		Coordinates: &weather.Coordinates{Lat: 52.5, Lon: 13.4},
		Fields:      []string{"name"},
		Lang:        "de",
	}

	_, err := svc.Fetch(ctx, req)
	require.NoError(t, err)
	_, err = svc.Fetch(ctx, req)
	require.NoError(t, err)

	calls := p.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, &weather.Coordinates{Lat: 52.5, Lon: 13.4}, calls[0].Coordinates)
	assert.Empty(t, calls[0].City)
	assert.Equal(t, "de", calls[0].Lang)
	assert.Zero(t, cache.Len())
	_, written := cache.LastUpdated()
	assert.False(t, written)
}

func TestFetchFallsBackToDefaultCity(t *testing.T) {
	p := &fakeProvider{report: berlinReport()}
	cache := store.NewMemoryStore(store.DefaultTTL)
	svc := weather.NewService(cache, p, weather.WithDefaultCity("Klagenfurt"), weather.WithDefaultLang("de"))

	_, err := svc.Fetch(context.Background(), weather.LookupRequest{})
	require.NoError(t, err)

	calls := p.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Klagenfurt", calls[0].City)
	assert.Equal(t, "de", calls[0].Lang)
	assert.Zero(t, cache.Len())
}

func TestFetchCityWithCoordinatesQueriesCoordinatesWithoutCaching(t *testing.T) {
	p := &fakeProvider{report: weather.Report{"name": "Mitte"}}
	svc, cache := newService(t, p, newClock())
	ctx := context.Background()

	_, err := svc.Fetch(ctx, weather.LookupRequest{
		City:        "Berlin",
		Coordinates: &weather.Coordinates{Lat: 52.5, Lon: 13.4},
	})
	require.NoError(t, err)

	calls := p.calls()
	require.Len(t, calls, 1)
	assert.NotNil(t, calls[0].Coordinates)
	_, ok := cache.Get("berlin")
	assert.False(t, ok)

	p.report = berlinReport()
	got, err := svc.Fetch(ctx, weather.LookupRequest{City: "Berlin", Fields: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Berlin"}`, encode(t, got))
	assert.Len(t, p.calls(), 2)
}

func TestFetchCacheRespectsLanguage(t *testing.T) {
	p := &fakeProvider{report: weather.Report{"weather": []any{map[string]any{"description": "light rain"}}}}
	svc, _ := newService(t, p, newClock())
	ctx := context.Background()

	_, err := svc.Fetch(ctx, weather.LookupRequest{City: "Berlin", Lang: "en", Fields: []string{"description"}})
	require.NoError(t, err)

	p.report = weather.Report{"weather": []any{map[string]any{"description": "leichter Regen"}}}
	got, err := svc.Fetch(ctx, weather.LookupRequest{City: "Berlin", Lang: "de", Fields: []string{"description"}})
	require.NoError(t, err)
	assert.Equal(t, `{"description":"leichter Regen"}`, encode(t, got))
	require.Len(t, p.calls(), 2)
	assert.Equal(t, "de", p.calls()[1].Lang)

	got, err = svc.Fetch(ctx, weather.LookupRequest{City: "berlin", Lang: "de", Fields: []string{"description"}})
	require.NoError(t, err)
	assert.Equal(t, `{"description":"leichter Regen"}`, encode(t, got))
	assert.Len(t, p.calls(), 2)
}

func TestFetchErrorsAreLookupErrors(t *testing.T) {
	p := &fakeProvider{err: &weather.UpstreamStatusError{Status: 404, Message: "city not found"}}
	svc, cache := newService(t, p, newClock())

	_, err := svc.Fetch(context.Background(), weather.LookupRequest{City: "Atlantis", Fields: []string{"temp"}})
	require.Error(t, err)

	var lookupErr *weather.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, weather.KindRejected, lookupErr.Kind)
	assert.Equal(t, 404, lookupErr.HTTPStatus())
	assert.Equal(t, "city not found", lookupErr.Message)
	assert.Zero(t, cache.Len())

	p.err = errors.New("boom")
	_, err = svc.Fetch(context.Background(), weather.LookupRequest{City: "Atlantis"})
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, weather.KindFault, lookupErr.Kind)
	assert.Equal(t, 500, lookupErr.HTTPStatus())
}

func TestFetchWithoutProvider(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(0), nil)

	_, err := svc.Fetch(context.Background(), weather.LookupRequest{City: "Berlin"})

	var lookupErr *weather.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, weather.KindFault, lookupErr.Kind)
}

func TestRefreshStoresReport(t *testing.T) {
	p := &fakeProvider{report: berlinReport()}
	svc, cache := newService(t, p, newClock())

	require.NoError(t, svc.Refresh(context.Background(), "Berlin"))
	require.NoError(t, svc.Refresh(context.Background(), "Berlin"))

	assert.Len(t, p.calls(), 2)
	cached, ok := cache.Fresh("BERLIN")
	require.True(t, ok)
	assert.Equal(t, "Berlin", cached.Report["name"])
	assert.Equal(t, weather.DefaultLang, cached.Lang)

	assert.Error(t, svc.Refresh(context.Background(), "  "))
}
