// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skillquest/skillquest/internal/clock"
	"github.com/skillquest/skillquest/internal/config"
	"github.com/skillquest/skillquest/pkg/logger"
)

// CounterPurger removes proposal counters that no longer count toward a limit.
type CounterPurger interface {
	DeleteCreationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service handles background job scheduling.
type Service struct {
	config         *config.SchedulerConfig
	creationWindow time.Duration
	purger         CounterPurger
	clock          clock.Clock
	log            *logger.Logger
	cron           *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	purger CounterPurger,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		config:         &cfg.Scheduler,
		creationWindow: cfg.Engagement.CreationWindow(),
		purger:         purger,
		clock:          clk,
		log:            log.Component("scheduler"),
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	if err := validateSchedule(s.config.CounterCleanup); err != nil {
		return err
	}

	s.cron = cron.New(cron.WithLocation(location))

	_, err = s.cron.AddFunc(s.config.CounterCleanup, func() {
		s.runCounterCleanup(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register counter cleanup job: %w", err)
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", s.config.CounterCleanup).
		Str("timezone", s.config.Timezone).
		Dur("creation_window", s.creationWindow).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}
