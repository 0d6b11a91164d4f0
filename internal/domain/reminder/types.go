// internal/domain/reminder/types.go
package reminder

// Type is the reason a reminder fires, keyed to a fixed offset from the due date.
type Type string

const (
	TypeGentle     Type = "GENTLE"     // 5 days before the due date
	TypeDue        Type = "DUE"        // on the due date
	TypeFirm       Type = "FIRM"       // 7 days overdue
	TypeEscalation Type = "ESCALATION" // 15 days overdue
)

// Rule binds a reminder type to the day offset (today - due date) on which it fires.
type Rule struct {
	Type   Type
	Offset int
}

// DefaultRules is the reminder schedule, ordered by offset.
var DefaultRules = []Rule{
	{Type: TypeGentle, Offset: -5},
	{Type: TypeDue, Offset: 0},
	{Type: TypeFirm, Offset: 7},
	{Type: TypeEscalation, Offset: 15},
}

// Channel is an opaque delivery channel tag. The decision engine never interprets it.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelWhatsApp Channel = "WHATSAPP"
)
