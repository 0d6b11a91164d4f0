// internal/domain/reminder/sender.go
package reminder

import "context"

// Message is a rendered reminder ready for a transport.
type Message struct {
	Recipient string
	Subject   string // empty for chat channels
	Body      string
	Type      Type
}

// Sender delivers reminders over one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, inv Invoice, msg Message) error
}

// Stats summarises one reminder pass.
type Stats struct {
	Total   int
	Sent    int
	Failed  int
	Skipped int
}
