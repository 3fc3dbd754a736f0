package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-proxy/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap current weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

var errMissingAPIKey = errors.New("openweather api key is not configured")

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// OpenWeatherOption customizes an OpenWeatherProvider.
type OpenWeatherOption func(*OpenWeatherProvider)

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func WithBaseURL(u string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(cfg BreakerConfig) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		p.circuit = newBreaker(p.name, cfg)
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...OpenWeatherOption) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherURL,
		client:  client,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.circuit == nil {
		p.circuit = newBreaker(p.name, DefaultBreakerConfig())
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Current fetches the current conditions. Coordinates win over the city name.
func (p *OpenWeatherProvider) Current(ctx context.Context, q weather.Query) (weather.Report, error) {
	if p.apiKey == "" {
		return nil, errMissingAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		if q.Lang != "" {
			values.Set("lang", q.Lang)
		}

		if q.Coordinates != nil {
			values.Set("lat", strconv.FormatFloat(q.Coordinates.Lat, 'f', -1, 64))
			values.Set("lon", strconv.FormatFloat(q.Coordinates.Lon, 'f', -1, 64))
		} else {
			values.Set("q", q.City)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var report weather.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode openweather payload: %w", err)
	}
	if report == nil {
		return nil, fmt.Errorf("decode openweather payload: empty body")
	}
	return report, nil
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)
