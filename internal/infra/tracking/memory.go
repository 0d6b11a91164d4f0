// internal/infra/tracking/memory.go
package tracking

import (
	"context"
	"sync"
	"time"

	"payment_recovery/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

type sentEntry struct {
	Type    reminder.Type
	Channel reminder.Channel
}

// MemoryTracker is the process-local daily tracking window: invoice ID to the
// (type, channel) pairs sent "today". It is cleared the first time an operation
// observes a day later than the stored one. State is lost on restart and is
// not shared between processes.
type MemoryTracker struct {
	mu         sync.Mutex
	sentToday  map[int64]map[sentEntry]struct{}
	windowDate time.Time
	logger     *logrus.Entry
}

func NewMemoryTracker(logger *logrus.Entry) *MemoryTracker {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &MemoryTracker{
		sentToday: make(map[int64]map[sentEntry]struct{}),
		logger:    logger,
	}
}

// advance moves the window forward when day is past the stored date and
// reports whether day falls in the current window. An older day leaves the
// window untouched. Must be called with mu held.
func (m *MemoryTracker) advance(day time.Time) bool {
	d := dateOf(day)
	switch {
	case m.windowDate.Equal(d):
		return true
	case d.Before(m.windowDate):
		m.logger.WithField("day", d.Format(dateLayout)).Warn("Ignoring tracking call for a day before the current window")
		return false
	}
	if !m.windowDate.IsZero() {
		m.logger.WithField("day", d.Format(dateLayout)).Debug("Resetting daily reminder tracking")
	}
	m.sentToday = make(map[int64]map[sentEntry]struct{})
	m.windowDate = d
	return true
}

// WasSent answers false for a day before the current window; those marks are gone.
func (m *MemoryTracker) WasSent(_ context.Context, key reminder.SuppressionKey, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.advance(day) {
		return false, nil
	}

	_, ok := m.sentToday[key.InvoiceID][sentEntry{Type: key.Type, Channel: key.Channel}]
	return ok, nil
}

// MarkSent for a day before the current window is dropped.
func (m *MemoryTracker) MarkSent(_ context.Context, key reminder.SuppressionKey, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.advance(day) {
		return nil
	}

	set, ok := m.sentToday[key.InvoiceID]
	if !ok {
		set = make(map[sentEntry]struct{})
		m.sentToday[key.InvoiceID] = set
	}
	set[sentEntry{Type: key.Type, Channel: key.Channel}] = struct{}{}
	return nil
}

// Reset clears the window. The stored date never moves backwards.
func (m *MemoryTracker) Reset(_ context.Context, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentToday = make(map[int64]map[sentEntry]struct{})
	if d := dateOf(day); d.After(m.windowDate) {
		m.windowDate = d
	}
	return nil
}

// Len returns the number of keys recorded in the current window.
func (m *MemoryTracker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, set := range m.sentToday {
		n += len(set)
	}
	return n
}

const dateLayout = "2006-01-02"

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
