package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"required,url"`

	// HTTPTimeout bounds every outbound upstream call.
	HTTPTimeout time.Duration `validate:"gt=0"`

	CacheTTL   time.Duration `validate:"gt=0"`
	CacheScope string        `validate:"oneof=global per-key"`

	DefaultCity string `validate:"required"`
	DefaultLang string `validate:"required"`

	// WarmCities are refreshed every WarmInterval; empty disables warm-up.
	WarmCities   []string
	WarmInterval time.Duration `validate:"gt=0"`

	CORSAllowOrigins string
	LogLevel         string `validate:"oneof=debug info warn error"`

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

var errWarmupNeedsPerKeyScope = errors.New("WARM_CITIES requires CACHE_TTL_SCOPE=per-key")

// Load reads configuration from the environment (and a .env file if present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	if cfg.OpenWeatherAPIKey == "" {
		cfg.OpenWeatherAPIKey = os.Getenv("API_KEY")
	}
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m"); err != nil {
		return nil, err
	}
	cfg.CacheScope = getenvDefault("CACHE_TTL_SCOPE", "global")

	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", "Berlin")
	cfg.DefaultLang = getenvDefault("DEFAULT_LANG", "en")

	cfg.WarmCities = splitList(os.Getenv("WARM_CITIES"))
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", "10m"); err != nil {
		return nil, err
	}

	cfg.CORSAllowOrigins = getenvDefault("CORS_ALLOW_ORIGINS", "*")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.Port = getenvDefault("PORT", "3000")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	// Every warm-up write moves the shared update time, so under the global
	// scope no entry would ever expire.
	if len(cfg.WarmCities) > 0 && cfg.CacheScope == "global" {
		return nil, errWarmupNeedsPerKeyScope
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitList splits a comma-separated list, dropping blank items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
