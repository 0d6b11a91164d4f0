// internal/infra/senders/email.go
package senders

import (
	"context"
	"fmt"

	"payment_recovery/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

const (
	senderEmail = "noreply@paymentrecovery.com"
	senderName  = "Payment Recovery System"
)

var ErrNoRecipient = fmt.Errorf("message has no recipient")

// EmailSender is a mock mail transport: it writes the rendered message to the
// log and reports success.
type EmailSender struct {
	logger *logrus.Entry
}

func NewEmailSender(logger *logrus.Entry) *EmailSender {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &EmailSender{logger: logger}
}

func (s *EmailSender) Channel() reminder.Channel { return reminder.ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, inv reminder.Invoice, msg reminder.Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"from":           fmt.Sprintf("%s <%s>", senderName, senderEmail),
		"to":             msg.Recipient,
		"subject":        msg.Subject,
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"reminder_type":  msg.Type,
		"due_date":       inv.DueDate,
		"amount":         inv.Amount.StringFixed(2),
		"body":           msg.Body,
	}).Info("EMAIL MESSAGE (MOCK)")
	return nil
}
