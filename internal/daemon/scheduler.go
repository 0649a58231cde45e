package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for periodic rebuilds. On top of webhook-driven
// builds, a schedule catches pushes the webhook missed.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// SchedulePeriodicBuild enqueues a scheduled build every interval.
func (s *Scheduler) SchedulePeriodicBuild(interval time.Duration, queue *BuildQueue) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := queue.Enqueue(BuildTypeScheduled); err != nil {
				slog.Warn("Scheduled build not queued", slog.String("reason", err.Error()))
			}
		}),
		gocron.WithName("scheduled-build"),
	)
	if err != nil {
		return fmt.Errorf("failed to create periodic build job: %w", err)
	}
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
