package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often idle rate limit windows are dropped.
const DefaultInterval = 5 * time.Minute

// Purger drops idle state and reports how many entries went.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// CleanupResult contains the results of a cleanup run.
type CleanupResult struct {
	Purged   int
	Duration time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// Service periodically purges an in-memory rate limit store so windows for
// callers that went quiet do not accumulate.
type Service struct {
	store    Purger
	logger   *slog.Logger
	interval time.Duration
}

func New(store Purger, opts ...Option) *Service {
	service := &Service{
		store:    store,
		logger:   slog.Default(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Start runs until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("ratelimit_cleanup_failed", "error", err)
				continue
			}
			if res.Purged > 0 {
				s.logger.Debug("ratelimit_cleanup_completed",
					"purged", res.Purged,
					"duration_ms", res.Duration.Milliseconds(),
				)
			}
		case <-ctx.Done():
			s.logger.Info("ratelimit cleanup worker stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce executes a single cleanup run. Logging is handled by Start.
func (s *Service) RunOnce(ctx context.Context) (*CleanupResult, error) {
	start := time.Now()
	purged, err := s.store.Purge(ctx)
	if err != nil {
		return nil, err
	}
	return &CleanupResult{Purged: purged, Duration: time.Since(start)}, nil
}
