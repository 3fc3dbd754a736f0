package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-proxy/internal/weather"
)

const (
	defaultInterval = 10 * time.Minute
	refreshTimeout  = 30 * time.Second
)

// Refresher is the part of weather.Service the scheduler needs.
type Refresher interface {
	Refresh(ctx context.Context, city string) error
}

// Scheduler periodically refreshes cached reports for configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	cities    []string
	interval  time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, service Refresher, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cities:    cities,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Info("no warm cities configured; nothing to schedule")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.run); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("cache warm-up scheduled",
		zap.Strings("cities", s.cities),
		zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run() {
	s.log.Debug("running cache warm-up job")

	var wg sync.WaitGroup
	for _, city := range s.cities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()

			if err := s.service.Refresh(ctx, city); err != nil {
				s.log.Warn("warm-up refresh failed", zap.String("city", city), zap.Error(err))
			}
		}(city)
	}
	wg.Wait()

	s.log.Debug("completed cache warm-up job")
}

var _ Refresher = (*weather.Service)(nil)
