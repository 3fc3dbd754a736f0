package weather

import (
	"context"
)

// Query is what a Provider is asked for. Coordinates take precedence over City.
type Query struct {
	City        string
	Coordinates *Coordinates
	Lang        string
}

// Provider abstracts the upstream weather data source (e.g. OpenWeatherMap).
type Provider interface {
	Name() string
	Current(ctx context.Context, q Query) (Report, error)
}

// Cached is a report together with the language it was fetched in.
type Cached struct {
	Report Report
	Lang   string
}

// Cache is the contract the report cache must satisfy.
type Cache interface {
	// Fresh returns the stored entry for city if the cache considers it valid.
	Fresh(city string) (Cached, bool)
	Put(city string, entry Cached)
}
