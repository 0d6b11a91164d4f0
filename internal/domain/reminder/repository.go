// internal/domain/reminder/repository.go
package reminder

import (
	"context"
	"time"
)

// InvoiceSource supplies the invoices that may need a reminder today.
type InvoiceSource interface {
	GetPendingInvoicesForReminder(ctx context.Context) ([]Invoice, error)
}

// ReminderLog is the durable system of record for delivered reminders.
type ReminderLog interface {
	LogReminder(ctx context.Context, invoiceID int64, t Type, ch Channel) error
}

// RunReport summarises one reminder pass for operators.
type RunReport struct {
	RunID      string
	Day        time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      Stats
	Err        error // set when the pass aborted
}

// Reporter publishes run summaries. Failures are logged, never fatal.
type Reporter interface {
	ReportRun(ctx context.Context, report RunReport) error
}
