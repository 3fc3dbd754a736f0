package weather

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultCity = "Berlin"
	DefaultLang = "en"
)

// Service answers lookups from the cache or the upstream provider and
// projects the report onto the requested fields.
type Service struct {
	cache       Cache
	provider    Provider
	log         *zap.Logger
	defaultCity string
	defaultLang string
}

// Option customizes a Service.
type Option func(*Service)

// WithDefaultCity sets the city queried when a request names neither a city
// nor coordinates.
func WithDefaultCity(city string) Option {
	return func(s *Service) {
		if city != "" {
			s.defaultCity = city
		}
	}
}

// WithDefaultLang sets the language used when a request carries none.
func WithDefaultLang(lang string) Option {
	return func(s *Service) {
		if lang != "" {
			s.defaultLang = lang
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a new Service.
func NewService(cache Cache, provider Provider, opts ...Option) *Service {
	s := &Service{
		cache:       cache,
		provider:    provider,
		log:         zap.NewNop(),
		defaultCity: DefaultCity,
		defaultLang: DefaultLang,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch resolves a lookup. A cached report is used only when the request
// names a city and the cache holds a valid entry for it in the requested
// language. Reports are cached only when the upstream was queried by a named
// city; coordinate and default-city lookups are not cached.
// Every error returned is a *LookupError.
func (s *Service) Fetch(ctx context.Context, req LookupRequest) (ProjectedResult, error) {
	city := strings.TrimSpace(req.City)
	lang := req.Lang
	if lang == "" {
		lang = s.defaultLang
	}

	if city != "" {
		if cached, ok := s.cache.Fresh(city); ok && cached.Lang == lang {
			s.log.Debug("cache hit", zap.String("city", city), zap.String("lang", lang))
			return Project(cached.Report, req.Fields), nil
		}
		s.log.Debug("cache miss", zap.String("city", city), zap.String("lang", lang))
	}

	q := Query{
		City:        city,
		Coordinates: req.Coordinates,
		Lang:        lang,
	}
	if q.Coordinates == nil && q.City == "" {
		q.City = s.defaultCity
	}

	report, err := s.current(ctx, q)
	if err != nil {
		return ProjectedResult{}, err
	}

	if city != "" && q.Coordinates == nil {
		s.cache.Put(city, Cached{Report: report, Lang: lang})
	}

	return Project(report, req.Fields), nil
}

// Refresh fetches city from the upstream with the default language and
// stores it in the cache regardless of the cache's current state.
func (s *Service) Refresh(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return &LookupError{Kind: KindFault, Message: "city is required"}
	}

	report, err := s.current(ctx, Query{City: city, Lang: s.defaultLang})
	if err != nil {
		return err
	}
	s.cache.Put(city, Cached{Report: report, Lang: s.defaultLang})
	return nil
}

func (s *Service) current(ctx context.Context, q Query) (Report, error) {
	if s.provider == nil {
		return nil, &LookupError{Kind: KindFault, Message: msgFault, Err: errors.New("no weather provider configured")}
	}

	report, err := s.provider.Current(ctx, q)
	if err == nil && report == nil {
		err = errors.New("provider returned an empty report")
	}
	if err != nil {
		lookupErr := classify(err)
		fields := []zap.Field{
			zap.String("provider", s.provider.Name()),
			zap.String("city", q.City),
			zap.Bool("byCoordinates", q.Coordinates != nil),
			zap.Stringer("kind", lookupErr.Kind),
			zap.Error(err),
		}
		if lookupErr.Kind == KindFault {
			s.log.Error("weather lookup failed", fields...)
		} else {
			s.log.Warn("weather lookup failed", fields...)
		}
		return nil, lookupErr
	}
	return report, nil
}
