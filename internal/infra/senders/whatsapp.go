// internal/infra/senders/whatsapp.go
package senders

import (
	"context"
	"strings"

	"payment_recovery/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// WhatsAppSender is a mock chat transport.
type WhatsAppSender struct {
	logger *logrus.Entry
}

func NewWhatsAppSender(logger *logrus.Entry) *WhatsAppSender {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &WhatsAppSender{logger: logger}
}

func (s *WhatsAppSender) Channel() reminder.Channel { return reminder.ChannelWhatsApp }

func (s *WhatsAppSender) Send(ctx context.Context, inv reminder.Invoice, msg reminder.Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"from":           senderName,
		"to":             FormatPhoneNumber(msg.Recipient),
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"reminder_type":  msg.Type,
		"due_date":       inv.DueDate,
		"amount":         inv.Amount.StringFixed(2),
		"message":        msg.Body,
	}).Info("WHATSAPP MESSAGE (MOCK)")
	return nil
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// FormatPhoneNumber pretty-prints international numbers for display:
// "+12345678901" becomes "+1 (234) 567-8901" and "+911234567890" becomes
// "+91 12345 67890". Anything else is returned unchanged.
func FormatPhoneNumber(phone string) string {
	cleaned := phoneSeparators.Replace(phone)
	if !strings.HasPrefix(cleaned, "+") {
		return phone
	}
	switch len(cleaned) {
	case 12:
		return cleaned[:2] + " (" + cleaned[2:5] + ") " + cleaned[5:8] + "-" + cleaned[8:]
	case 13:
		return cleaned[:3] + " " + cleaned[3:8] + " " + cleaned[8:]
	default:
		return phone
	}
}
