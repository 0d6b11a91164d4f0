// internal/domain/reminder/tracker.go
package reminder

import (
	"context"
	"time"
)

// SuppressionKey identifies one reminder delivery. Within a calendar day a key
// may be marked sent at most once.
type SuppressionKey struct {
	InvoiceID int64
	Type      Type
	Channel   Channel
}

// Tracker records which suppression keys were dispatched on a given day.
// The day argument is a calendar date; implementations ignore its time of day.
type Tracker interface {
	// WasSent reports whether key is recorded for day. It never mutates state
	// beyond the daily window reset.
	WasSent(ctx context.Context, key SuppressionKey, day time.Time) (bool, error)
	// MarkSent records key for day. Marking an already recorded key is a no-op.
	MarkSent(ctx context.Context, key SuppressionKey, day time.Time) error
	// Reset drops everything recorded for day.
	Reset(ctx context.Context, day time.Time) error
}

// HistoryTracker is a Tracker that remembers sends beyond the current day.
type HistoryTracker interface {
	Tracker
	// SentWithin reports whether key was sent on any of the days in
	// [day-days, day].
	SentWithin(ctx context.Context, key SuppressionKey, day time.Time, days int) (bool, error)
}
