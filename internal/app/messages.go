// internal/app/messages.go
package app

import (
	"fmt"
	"strings"

	"payment_recovery/internal/domain/reminder"

	"github.com/shopspring/decimal"
)

const signature = "Payment Recovery System"

// FormatAmount renders an amount as "$1,234.56" without leaving decimal
// arithmetic, so large amounts keep every digit.
func FormatAmount(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	fixed := rounded.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

type messageFields struct {
	number   string
	customer string
	due      string
	amount   string
}

func fieldsOf(inv reminder.Invoice) messageFields {
	return messageFields{
		number:   orDefault(inv.InvoiceNumber, "N/A"),
		customer: orDefault(inv.CustomerName, "Customer"),
		due:      orDefault(inv.DueDate, "N/A"),
		amount:   FormatAmount(inv.Amount),
	}
}

// EmailSubject returns the subject line for a reminder e-mail.
func EmailSubject(inv reminder.Invoice, t reminder.Type) string {
	number := orDefault(inv.InvoiceNumber, "N/A")
	switch t {
	case reminder.TypeGentle:
		return "Gentle Reminder: Payment Due Soon - Invoice " + number
	case reminder.TypeDue:
		return "Payment Due Today - Invoice " + number
	case reminder.TypeFirm:
		return "Payment Overdue - Invoice " + number
	case reminder.TypeEscalation:
		return "URGENT: Payment Overdue - Invoice " + number
	default:
		return "Payment Reminder - Invoice " + number
	}
}

// EmailBody returns the plain-text body of a reminder e-mail.
func EmailBody(inv reminder.Invoice, t reminder.Type) string {
	f := fieldsOf(inv)

	var lead, action, closing string
	switch t {
	case reminder.TypeGentle:
		lead = fmt.Sprintf("This is a gentle reminder that your invoice %s is due in 5 days.", f.number)
		action = "Please ensure payment is made on time to avoid any issues."
		closing = "Thank you for your business!"
	case reminder.TypeDue:
		lead = fmt.Sprintf("This is to remind you that your invoice %s is due today.", f.number)
		action = "Please make payment today to avoid any late fees or service interruptions."
		closing = "Thank you for your prompt attention to this matter."
	case reminder.TypeFirm:
		lead = fmt.Sprintf("This is to inform you that your invoice %s is now 7 days overdue.", f.number)
		action = "Please make immediate payment to avoid further action."
		closing = "Thank you for your prompt attention to this matter."
	case reminder.TypeEscalation:
		lead = fmt.Sprintf("URGENT: Your invoice %s is now 15 days overdue.", f.number)
		action = "This is a final notice. Please contact us immediately to resolve this matter."
		closing = "We look forward to your immediate response."
	default:
		lead = fmt.Sprintf("This is a payment reminder for invoice %s.", f.number)
		action = "Please arrange payment at your earliest convenience."
		closing = "Thank you!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", f.customer)
	fmt.Fprintf(&b, "%s\n\n", lead)
	b.WriteString("Invoice Details:\n")
	fmt.Fprintf(&b, "  Invoice Number: %s\n", f.number)
	fmt.Fprintf(&b, "  Due Date: %s\n", f.due)
	fmt.Fprintf(&b, "  Amount: %s\n\n", f.amount)
	fmt.Fprintf(&b, "%s\n\n", action)
	b.WriteString("If you have already made the payment, please disregard this message.\n\n")
	fmt.Fprintf(&b, "%s\n\nBest regards,\n%s", closing, signature)
	return b.String()
}

// WhatsAppText returns the chat message for a reminder.
func WhatsAppText(inv reminder.Invoice, t reminder.Type) string {
	f := fieldsOf(inv)

	var headline, action string
	switch t {
	case reminder.TypeGentle:
		headline = fmt.Sprintf("Gentle reminder: Your invoice %s is due in 5 days (Due: %s).", f.number, f.due)
		action = "Please ensure payment is made on time."
	case reminder.TypeDue:
		headline = fmt.Sprintf("Payment Due Today: Your invoice %s is due today (%s).", f.number, f.due)
		action = "Please make payment today to avoid any issues."
	case reminder.TypeFirm:
		headline = fmt.Sprintf("Payment Overdue: Your invoice %s is now 7 days overdue (Due: %s).", f.number, f.due)
		action = "Please make immediate payment to avoid further action."
	case reminder.TypeEscalation:
		headline = fmt.Sprintf("URGENT: Your invoice %s is now 15 days overdue (Due: %s).", f.number, f.due)
		action = "This is a final notice. Please contact us immediately to resolve this matter."
	default:
		return fmt.Sprintf("Hello %s,\n\nPayment reminder for invoice %s.\n\nAmount: %s\nDue Date: %s\n\nThank you!",
			f.customer, f.number, f.amount, f.due)
	}
	return fmt.Sprintf("Hello %s,\n\n%s\n\nAmount: %s\n\n%s\n\nThank you!", f.customer, headline, f.amount, action)
}

// BuildMessage renders the reminder for the given channel.
func BuildMessage(inv reminder.Invoice, t reminder.Type, ch reminder.Channel) reminder.Message {
	switch ch {
	case reminder.ChannelEmail:
		return reminder.Message{
			Recipient: inv.CustomerEmail,
			Subject:   EmailSubject(inv, t),
			Body:      EmailBody(inv, t),
			Type:      t,
		}
	case reminder.ChannelWhatsApp:
		return reminder.Message{Recipient: inv.CustomerPhone, Body: WhatsAppText(inv, t), Type: t}
	default:
		return reminder.Message{Body: WhatsAppText(inv, t), Type: t}
	}
}
