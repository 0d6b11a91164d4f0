// internal/infra/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment_recovery/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultJobTimeout = 30 * time.Minute

// ReminderScheduler triggers the daily reminder pass.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	runner     app.ReminderRunner
	cronSpec   string
	jobTimeout time.Duration
	logger     *logrus.Entry
}

func NewReminderScheduler(runner app.ReminderRunner, cronSpec string, loc *time.Location, logger *logrus.Entry) *ReminderScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ReminderScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		runner:     runner,
		cronSpec:   cronSpec,
		jobTimeout: defaultJobTimeout,
		logger:     logger,
	}
}

// Start registers the job and starts the cron engine.
func (s *ReminderScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.cronSpec, s.RunOnce); err != nil {
		return fmt.Errorf("could not add reminder cron job %q: %w", s.cronSpec, err)
	}
	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Reminder scheduler started")
	return nil
}

// RunOnce executes one reminder pass under the job timeout.
func (s *ReminderScheduler) RunOnce() {
	s.logger.Info("Reminder job triggered")
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	stats, err := s.runner.ProcessReminders(ctx)
	switch {
	case errors.Is(err, app.ErrPassInProgress):
		s.logger.Warn("Previous reminder pass still running, skipping this trigger")
	case err != nil:
		s.logger.WithError(err).Error("Error during reminder processing")
	default:
		s.logger.WithFields(logrus.Fields{
			"total":   stats.Total,
			"sent":    stats.Sent,
			"failed":  stats.Failed,
			"skipped": stats.Skipped,
		}).Info("Reminder job finished")
	}
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *ReminderScheduler) Next() time.Time {
	entries := s.cronEngine.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // waits for a running job
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped")
}
