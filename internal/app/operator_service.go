// internal/app/operator_service.go
package app

import (
	"context"
	"fmt"
	"sync"

	"payment_recovery/internal/domain/reminder"
)

var ErrOperatorNotAuthorized = fmt.Errorf("performing user is not authorized as an operator")
var ErrNoRunRecorded = fmt.Errorf("no reminder pass has run yet")

// RunRecorder keeps the latest run report and forwards every report to an
// optional downstream reporter.
type RunRecorder struct {
	mu   sync.RWMutex
	last *reminder.RunReport
	next reminder.Reporter
}

func NewRunRecorder(next reminder.Reporter) *RunRecorder {
	return &RunRecorder{next: next}
}

func (r *RunRecorder) ReportRun(ctx context.Context, report reminder.RunReport) error {
	r.mu.Lock()
	r.last = &report
	r.mu.Unlock()

	if r.next == nil {
		return nil
	}
	return r.next.ReportRun(ctx, report)
}

// Last returns the most recent report, if any.
func (r *RunRecorder) Last() (reminder.RunReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return reminder.RunReport{}, false
	}
	return *r.last, true
}

// ReminderRunner runs a reminder pass on demand.
type ReminderRunner interface {
	ProcessReminders(ctx context.Context) (reminder.Stats, error)
}

// OperatorService exposes manual control of the reminder pass to a single
// configured operator.
type OperatorService struct {
	runner     ReminderRunner
	recorder   *RunRecorder
	operatorID int64
}

func NewOperatorService(runner ReminderRunner, recorder *RunRecorder, operatorID int64) *OperatorService {
	return &OperatorService{
		runner:     runner,
		recorder:   recorder,
		operatorID: operatorID,
	}
}

func (s *OperatorService) IsOperator(userID int64) bool {
	return s.operatorID != 0 && userID == s.operatorID
}

// TriggerRun starts a reminder pass for an authorised operator.
func (s *OperatorService) TriggerRun(ctx context.Context, performingUserID int64) (reminder.Stats, error) {
	if !s.IsOperator(performingUserID) {
		return reminder.Stats{}, ErrOperatorNotAuthorized
	}
	stats, err := s.runner.ProcessReminders(ctx)
	if err != nil {
		return stats, fmt.Errorf("manual reminder pass failed: %w", err)
	}
	return stats, nil
}

// LastRun returns the summary of the most recent pass.
func (s *OperatorService) LastRun(performingUserID int64) (reminder.RunReport, error) {
	if !s.IsOperator(performingUserID) {
		return reminder.RunReport{}, ErrOperatorNotAuthorized
	}
	report, ok := s.recorder.Last()
	if !ok {
		return reminder.RunReport{}, ErrNoRunRecorded
	}
	return report, nil
}
