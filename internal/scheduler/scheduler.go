package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"property-browser/internal/ingest"
)

// Runner runs one ingestion.
type Runner interface {
	Run(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

// Config configures the periodic ingestion job.
type Config struct {
	Enabled bool
	Spec    string // five-field cron expression
	Cities  []string
	Timeout time.Duration
}

// Scheduler re-ingests the configured cities on a cron schedule so the
// properties table stays fresh without a user-triggered refresh.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	isRunning bool
	busy      bool
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, cfg Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the job and starts the cron loop. It is a no-op when the
// scheduler is disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("Scheduler disabled in configuration")
		return nil
	}
	if _, err := cron.ParseStandard(s.cfg.Spec); err != nil {
		return fmt.Errorf("invalid scheduler cron %q: %w", s.cfg.Spec, err)
	}

	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		s.RunNow(ctx)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("cron", s.cfg.Spec), zap.Strings("cities", s.cfg.Cities))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	running := s.isRunning
	s.isRunning = false
	s.mu.Unlock()

	if running {
		<-s.cron.Stop().Done()
		s.logger.Info("Scheduler stopped")
	}
}

// Summary is the outcome of one pass over the cities.
type Summary struct {
	Cities   int               `json:"cities"`
	Upserted int               `json:"upserted"`
	Failed   int               `json:"failed"`
	Errors   map[string]string `json:"errors,omitempty"`
	Skipped  bool              `json:"skipped,omitempty"`
}

// RunNow ingests every configured city once. A pass that starts while
// another is still running is skipped.
func (s *Scheduler) RunNow(ctx context.Context) Summary {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.logger.Warn("Ingestion pass already running, skipping")
		return Summary{Skipped: true}
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	cities := s.cfg.Cities
	if len(cities) == 0 {
		cities = []string{ingest.DefaultCity}
	}

	sum := Summary{Cities: len(cities)}
	for _, city := range cities {
		if ctx.Err() != nil {
			break
		}
		res, err := s.runner.Run(ctx, ingest.Request{City: city})
		if err != nil {
			s.logger.Error("Scheduled ingestion failed", zap.String("city", city), zap.Error(err))
			if sum.Errors == nil {
				sum.Errors = map[string]string{}
			}
			sum.Errors[city] = err.Error()
			continue
		}
		sum.Upserted += res.Upserted
		sum.Failed += res.Failed
	}

	s.logger.Info("Ingestion pass completed",
		zap.Int("cities", sum.Cities),
		zap.Int("upserted", sum.Upserted),
		zap.Int("failed", sum.Failed),
		zap.Int("errors", len(sum.Errors)))
	return sum
}
