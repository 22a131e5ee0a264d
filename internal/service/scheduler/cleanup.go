package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	prommetrics "github.com/skillquest/skillquest/internal/metrics"
)

// validateSchedule checks a standard five field cron expression.
func validateSchedule(expr string) error {
	if expr == "" {
		return fmt.Errorf("counter cleanup schedule is empty")
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// cleanupCutoff is the oldest creation time still inside the window.
func cleanupCutoff(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// runCounterCleanup deletes ActivityCreationCounter rows older than the creation window.
func (s *Service) runCounterCleanup(ctx context.Context) (int64, error) {
	start := time.Now()

	defer func() {
		prommetrics.ObserveSchedulerJobDuration(time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun()
	}()

	cutoff := cleanupCutoff(s.clock.Now(), s.creationWindow)
	s.log.Info().Time("cutoff", cutoff).Msg("Running counter cleanup job")

	purged, err := s.purger.DeleteCreationsBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Counter cleanup job failed")
		prommetrics.RecordSchedulerJobRun("error")
		return 0, err
	}

	prommetrics.RecordSchedulerJobRun("success")
	prommetrics.RecordCountersPurged(purged)

	s.log.Info().
		Int64("purged", purged).
		Dur("duration", time.Since(start)).
		Msg("Counter cleanup job completed successfully")
	return purged, nil
}
