// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the engagement engines.
var (
	// Counters.
	XpAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xp_awarded_total",
			Help: "Total XP credited to users, by source",
		},
		[]string{"source"},
	)

	PuzzleAnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puzzle_answers_total",
			Help: "Total puzzle answers submitted",
		},
		[]string{"result"},
	)

	ChallengeAnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_answers_total",
			Help: "Total challenge answer lifecycle events",
		},
		[]string{"event"},
	)

	HappeningTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "happening_transitions_total",
			Help: "Total happening state transitions",
		},
		[]string{"transition"},
	)

	ReviewsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_submitted_total",
			Help: "Total activity reviews submitted",
		},
		[]string{"outcome"},
	)

	PendingActivitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pending_activities_total",
			Help: "Total proposal moderation decisions",
		},
		[]string{"decision"},
	)

	SkillUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skill_updates_total",
			Help: "Total skill allocation operations",
		},
		[]string{"operation"},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"status"},
	)

	SchedulerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
	)

	SchedulerJobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Time taken to execute the counter cleanup job",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)

	CreationCountersPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "creation_counters_purged_total",
			Help: "Total expired activity creation counters deleted",
		},
	)
)

// RecordXpAwarded adds xp to the awarded total for source. Non-positive amounts are ignored.
func RecordXpAwarded(source string, xp int) {
	if xp <= 0 {
		return
	}
	XpAwardedTotal.WithLabelValues(source).Add(float64(xp))
}

// RecordPuzzleAnswer records a puzzle answer outcome.
func RecordPuzzleAnswer(result string) {
	PuzzleAnswersTotal.WithLabelValues(result).Inc()
}

// RecordChallengeAnswer records a challenge answer event.
func RecordChallengeAnswer(event string) {
	ChallengeAnswersTotal.WithLabelValues(event).Inc()
}

// RecordHappeningTransition records a happening state transition.
func RecordHappeningTransition(transition string) {
	HappeningTransitionsTotal.WithLabelValues(transition).Inc()
}

// RecordReviewSubmitted records a review submission.
func RecordReviewSubmitted(outcome string) {
	ReviewsSubmittedTotal.WithLabelValues(outcome).Inc()
}

// RecordPendingDecision records a moderation decision.
func RecordPendingDecision(decision string) {
	PendingActivitiesTotal.WithLabelValues(decision).Inc()
}

// RecordSkillUpdate records a skill allocation operation.
func RecordSkillUpdate(operation string) {
	SkillUpdatesTotal.WithLabelValues(operation).Inc()
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(status string) {
	SchedulerJobsRunTotal.WithLabelValues(status).Inc()
}

// SetSchedulerLastRun sets the timestamp of the last scheduler run.
func SetSchedulerLastRun() {
	SchedulerLastRunTimestamp.SetToCurrentTime()
}

// ObserveSchedulerJobDuration observes the duration of a scheduler job.
func ObserveSchedulerJobDuration(seconds float64) {
	SchedulerJobDurationSeconds.Observe(seconds)
}

// RecordCountersPurged adds n to the purged creation counter total.
func RecordCountersPurged(n int64) {
	CreationCountersPurged.Add(float64(n))
}
