// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment_recovery/internal/domain/reminder"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var ErrPassInProgress = fmt.Errorf("a reminder pass is already running")

// ChannelOrder is the preference order in which delivery channels are tried.
var ChannelOrder = []reminder.Channel{reminder.ChannelEmail, reminder.ChannelWhatsApp}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeFailed
)

// ReminderServiceConfig toggles delivery channels.
type ReminderServiceConfig struct {
	EnableEmail    bool
	EnableWhatsApp bool
}

// ReminderService runs one reminder pass over the pending invoices: it decides,
// sends through the first available channel, marks the suppression slot and
// logs the delivery to the backend.
type ReminderService struct {
	engine   *DecisionEngine
	source   reminder.InvoiceSource
	sentLog  reminder.ReminderLog
	senders  map[reminder.Channel]reminder.Sender
	enabled  map[reminder.Channel]bool
	reporter reminder.Reporter
	logger   *logrus.Entry
	now      func() time.Time

	// passes run one at a time; the tracker is not shared across them
	running sync.Mutex
}

func NewReminderService(
	engine *DecisionEngine,
	source reminder.InvoiceSource,
	sentLog reminder.ReminderLog,
	senders []reminder.Sender,
	cfg ReminderServiceConfig,
	reporter reminder.Reporter, // optional
	logger *logrus.Entry,
) *ReminderService {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ReminderService{
		engine:  engine,
		source:  source,
		sentLog: sentLog,
		senders: lo.KeyBy(senders, func(s reminder.Sender) reminder.Channel { return s.Channel() }),
		enabled: map[reminder.Channel]bool{
			reminder.ChannelEmail:    cfg.EnableEmail,
			reminder.ChannelWhatsApp: cfg.EnableWhatsApp,
		},
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessReminders runs one pass. Per-invoice failures are counted, never
// returned; only a failed invoice fetch or a cancelled context aborts the pass.
// A pass started while another one runs fails with ErrPassInProgress.
func (s *ReminderService) ProcessReminders(ctx context.Context) (reminder.Stats, error) {
	if !s.running.TryLock() {
		return reminder.Stats{}, ErrPassInProgress
	}
	defer s.running.Unlock()

	runID := uuid.NewString()
	log := s.logger.WithField("run_id", runID)
	report := reminder.RunReport{RunID: runID, Day: s.engine.Today(), StartedAt: s.now()}

	stats, err := s.run(ctx, report.Day, log)
	report.Stats = stats
	report.Err = err
	report.FinishedAt = s.now()
	s.publish(ctx, report, log)
	return stats, err
}

func (s *ReminderService) run(ctx context.Context, today time.Time, log *logrus.Entry) (reminder.Stats, error) {
	var stats reminder.Stats

	log.Info("Fetching pending invoices for reminders")
	invoices, err := s.source.GetPendingInvoicesForReminder(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to fetch pending invoices")
		return stats, fmt.Errorf("failed to fetch pending invoices: %w", err)
	}
	stats.Total = len(invoices)
	log.WithField("count", stats.Total).Info("Found pending invoices")

	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("Reminder pass interrupted")
			return stats, fmt.Errorf("reminder pass interrupted: %w", err)
		}
		switch s.processInvoice(ctx, inv, today, log.WithField("invoice_id", inv.ID)) {
		case outcomeSent:
			stats.Sent++
		case outcomeFailed:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}

	log.WithFields(logrus.Fields{
		"total":   stats.Total,
		"sent":    stats.Sent,
		"failed":  stats.Failed,
		"skipped": stats.Skipped,
	}).Info("Reminder processing complete")
	return stats, nil
}

func (s *ReminderService) processInvoice(ctx context.Context, inv reminder.Invoice, today time.Time, log *logrus.Entry) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Panic while processing invoice reminder")
			out = outcomeFailed
		}
	}()

	if !inv.HasContact() {
		log.Warn("Invoice has no customer email or phone, skipping")
		return outcomeSkipped
	}

	decision := s.engine.Decide(inv, today)
	if !decision.Scheduled {
		return outcomeSkipped
	}
	log = log.WithField("reminder_type", decision.Type)

	// a reminder delivered on any channel covers the invoice
	for _, ch := range ChannelOrder {
		if !s.engine.ShouldSendReminder(ctx, inv.ID, decision.Type, ch, today) {
			log.WithField("channel", ch).Info("Reminder already sent, skipping invoice")
			return outcomeSkipped
		}
	}

	attempted := false
	for _, ch := range ChannelOrder {
		sender, ok := s.senders[ch]
		if !ok || !s.enabled[ch] || contactFor(inv, ch) == "" {
			continue
		}
		chLog := log.WithField("channel", ch)

		attempted = true
		if err := sender.Send(ctx, inv, BuildMessage(inv, decision.Type, ch)); err != nil {
			chLog.WithError(err).Warn("Failed to send reminder, trying next channel")
			continue
		}

		// the message is out; the slot is consumed whatever the backend says
		if err := s.engine.MarkReminderSent(ctx, inv.ID, decision.Type, ch, today); err != nil {
			chLog.WithError(err).Error("Failed to record reminder locally")
		}
		if err := s.sentLog.LogReminder(ctx, inv.ID, decision.Type, ch); err != nil {
			chLog.WithError(err).Error("Error logging reminder to backend")
			return outcomeFailed
		}
		chLog.Info("Successfully processed reminder")
		return outcomeSent
	}

	if attempted {
		log.Error("Reminder could not be delivered on any channel")
		return outcomeFailed
	}
	log.Warn("No contact method available or reminders disabled")
	return outcomeSkipped
}

func (s *ReminderService) publish(ctx context.Context, report reminder.RunReport, log *logrus.Entry) {
	if s.reporter == nil {
		return
	}
	if err := s.reporter.ReportRun(ctx, report); err != nil {
		log.WithError(err).Warn("Failed to publish run report")
	}
}

func contactFor(inv reminder.Invoice, ch reminder.Channel) string {
	switch ch {
	case reminder.ChannelEmail:
		return inv.CustomerEmail
	case reminder.ChannelWhatsApp:
		return inv.CustomerPhone
	default:
		return ""
	}
}
