// internal/app/reminder_logic.go
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"payment_recovery/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// ScheduleMode selects how day offsets are matched against the reminder rules.
type ScheduleMode string

const (
	// ScheduleExact fires a rule only on the exact day offset.
	ScheduleExact ScheduleMode = "exact"
	// ScheduleCatchUp keeps a rule eligible for CatchUpDays after its offset so a
	// missed scheduler run is recovered on the next one.
	ScheduleCatchUp ScheduleMode = "catch_up"
)

var ErrCatchUpNeedsHistory = fmt.Errorf("catch-up schedule requires a tracker that keeps send history")
var ErrInvalidScheduleMode = fmt.Errorf("invalid reminder schedule mode")

// DecisionConfig configures a DecisionEngine. Zero values fall back to the
// default rule table, exact matching and UTC.
type DecisionConfig struct {
	Rules       []reminder.Rule
	Mode        ScheduleMode
	CatchUpDays int
	Location    *time.Location
	Now         func() time.Time
}

// Decision is the outcome of classifying one invoice for one day.
type Decision struct {
	Type      reminder.Type
	DayOffset int
	Scheduled bool
}

// DecisionEngine decides which reminder applies to an invoice today and whether
// it may still be sent on a channel.
type DecisionEngine struct {
	tracker     reminder.Tracker
	history     reminder.HistoryTracker
	rules       []reminder.Rule
	mode        ScheduleMode
	catchUpDays int
	loc         *time.Location
	now         func() time.Time
	logger      *logrus.Entry
}

func NewDecisionEngine(tracker reminder.Tracker, cfg DecisionConfig, logger *logrus.Entry) (*DecisionEngine, error) {
	if tracker == nil {
		return nil, fmt.Errorf("decision engine: tracker is nil")
	}
	e := &DecisionEngine{
		tracker:     tracker,
		mode:        cfg.Mode,
		catchUpDays: cfg.CatchUpDays,
		loc:         cfg.Location,
		now:         cfg.Now,
		logger:      logger,
	}
	if e.mode == "" {
		e.mode = ScheduleExact
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	rules := cfg.Rules
	if len(rules) == 0 {
		rules = reminder.DefaultRules
	}
	e.rules = make([]reminder.Rule, len(rules))
	copy(e.rules, rules)
	sort.SliceStable(e.rules, func(i, j int) bool { return e.rules[i].Offset < e.rules[j].Offset })

	switch e.mode {
	case ScheduleExact:
	case ScheduleCatchUp:
		h, ok := tracker.(reminder.HistoryTracker)
		if !ok {
			return nil, ErrCatchUpNeedsHistory
		}
		if e.catchUpDays < 0 {
			return nil, fmt.Errorf("catch-up days must not be negative, got %d", e.catchUpDays)
		}
		e.history = h
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScheduleMode, e.mode)
	}
	return e, nil
}

// Today returns the current calendar date in the engine's location.
func (e *DecisionEngine) Today() time.Time {
	return dateOf(e.now().In(e.loc))
}

// CalculateDaysFromDueDate returns today minus the due date in whole calendar
// days: negative before the due date, zero on it, positive when overdue. The
// time of day and any offset marker on dueDate are ignored.
func CalculateDaysFromDueDate(dueDate string, today time.Time) (int, error) {
	due, err := ParseDueDate(dueDate)
	if err != nil {
		return 0, err
	}
	return daysBetween(due, today), nil
}

var dueDateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseDueDate reads a bare date or a timestamp and keeps only its calendar date.
func ParseDueDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, &reminder.ParseError{Value: value, Cause: reminder.ErrMissingDueDate}
	}
	var firstErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, &reminder.ParseError{Value: value, Cause: firstErr}
}

// Decide classifies inv for today. An unparseable or missing due date yields
// an unscheduled decision, never an error.
func (e *DecisionEngine) Decide(inv reminder.Invoice, today time.Time) Decision {
	log := e.logger.WithField("invoice_id", inv.ID)
	if strings.TrimSpace(inv.DueDate) == "" {
		log.Warn("Invoice has no due date")
		return Decision{}
	}
	offset, err := CalculateDaysFromDueDate(inv.DueDate, today)
	if err != nil {
		log.WithError(err).Error("Error parsing due date")
		return Decision{}
	}

	types := e.match(offset)
	if len(types) == 0 {
		log.WithField("days_diff", offset).Debug("No reminder scheduled for this day")
		return Decision{DayOffset: offset}
	}
	log.WithFields(logrus.Fields{"days_diff": offset, "reminder_type": types[0]}).Info("Reminder type determined")
	return Decision{Type: types[0], DayOffset: offset, Scheduled: true}
}

// DetermineReminderType returns the single reminder type due for inv today.
func (e *DecisionEngine) DetermineReminderType(inv reminder.Invoice, today time.Time) (reminder.Type, bool) {
	d := e.Decide(inv, today)
	return d.Type, d.Scheduled
}

// GetAllReminderTypesForInvoice evaluates every rule independently and returns
// each type that matches today, in rule order.
func (e *DecisionEngine) GetAllReminderTypesForInvoice(inv reminder.Invoice, today time.Time) []reminder.Type {
	if strings.TrimSpace(inv.DueDate) == "" {
		return nil
	}
	offset, err := CalculateDaysFromDueDate(inv.DueDate, today)
	if err != nil {
		e.logger.WithField("invoice_id", inv.ID).WithError(err).Error("Error parsing due date")
		return nil
	}
	return e.match(offset)
}

func (e *DecisionEngine) match(offset int) []reminder.Type {
	var out []reminder.Type
	for i, r := range e.rules {
		hi := r.Offset
		if e.mode == ScheduleCatchUp {
			hi = r.Offset + e.catchUpDays
			// never reach into the next milestone
			for _, next := range e.rules[i+1:] {
				if next.Offset > r.Offset {
					if next.Offset-1 < hi {
						hi = next.Offset - 1
					}
					break
				}
			}
		}
		if offset >= r.Offset && offset <= hi {
			out = append(out, r.Type)
		}
	}
	return out
}

// ShouldSendReminder reports whether the exact (invoice, type, channel) key is
// still unsent in the window containing today. It has no side effect besides
// the daily window reset; a tracker failure is logged and answered with false.
func (e *DecisionEngine) ShouldSendReminder(ctx context.Context, invoiceID int64, t reminder.Type, ch reminder.Channel, today time.Time) bool {
	key := reminder.SuppressionKey{InvoiceID: invoiceID, Type: t, Channel: ch}
	log := e.logger.WithFields(logrus.Fields{"invoice_id": invoiceID, "reminder_type": t, "channel": ch})

	sent, err := e.tracker.WasSent(ctx, key, today)
	if err != nil {
		log.WithError(err).Error("Failed to read reminder tracking, not sending")
		return false
	}
	if sent {
		log.Info("Reminder already sent today, skipping")
		return false
	}

	if e.history != nil {
		seen, err := e.history.SentWithin(ctx, key, today, e.catchUpDays)
		if err != nil {
			log.WithError(err).Error("Failed to read reminder history, not sending")
			return false
		}
		if seen {
			log.WithField("catch_up_days", e.catchUpDays).Info("Reminder already sent within catch-up window, skipping")
			return false
		}
	}
	return true
}

// MarkReminderSent records the key for today. Marking twice is a no-op.
func (e *DecisionEngine) MarkReminderSent(ctx context.Context, invoiceID int64, t reminder.Type, ch reminder.Channel, today time.Time) error {
	key := reminder.SuppressionKey{InvoiceID: invoiceID, Type: t, Channel: ch}
	if err := e.tracker.MarkSent(ctx, key, today); err != nil {
		return fmt.Errorf("failed to mark reminder %s via %s for invoice %d: %w", t, ch, invoiceID, err)
	}
	e.logger.WithFields(logrus.Fields{"invoice_id": invoiceID, "reminder_type": t, "channel": ch}).Debug("Marked reminder as sent today")
	return nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	// Unix seconds, not Sub: a Duration saturates after ~292 years
	a := dateOf(from).Unix()
	b := dateOf(to).Unix()
	return int((b - a) / 86400)
}
