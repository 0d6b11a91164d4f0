// internal/infra/telegram/reporter.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"payment_recovery/internal/domain/reminder"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RunReporter posts reminder pass summaries to an operator chat.
type RunReporter struct {
	client Messenger
	chatID int64
	logger *logrus.Entry
}

func NewRunReporter(client Messenger, chatID int64, logger *logrus.Entry) *RunReporter {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RunReporter{client: client, chatID: chatID, logger: logger}
}

func (r *RunReporter) ReportRun(_ context.Context, report reminder.RunReport) error {
	text := FormatRunReport(report)
	if err := r.client.SendMessage(r.chatID, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}); err != nil {
		return fmt.Errorf("failed to send run report to chat %d: %w", r.chatID, err)
	}
	r.logger.WithFields(logrus.Fields{"run_id": report.RunID, "chat_id": r.chatID}).Debug("Run report sent")
	return nil
}

// FormatRunReport renders a run summary as Telegram Markdown.
func FormatRunReport(report reminder.RunReport) string {
	var b strings.Builder
	if report.Err != nil {
		b.WriteString("*Reminder pass failed*\n")
	} else {
		b.WriteString("*Reminder pass complete*\n")
	}
	fmt.Fprintf(&b, "Day: `%s`\n", report.Day.Format("2006-01-02"))
	fmt.Fprintf(&b, "Run: `%s`\n", report.RunID)
	if !report.StartedAt.IsZero() && !report.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "\nTotal: %d\nSent: %d\nFailed: %d\nSkipped: %d",
		report.Stats.Total, report.Stats.Sent, report.Stats.Failed, report.Stats.Skipped)
	if report.Err != nil {
		fmt.Fprintf(&b, "\n\nError: `%s`", strings.ReplaceAll(report.Err.Error(), "`", "'"))
	}
	return b.String()
}
