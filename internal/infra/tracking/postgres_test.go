package tracking

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"payment_recovery/internal/domain/reminder"
	"payment_recovery/internal/infra/database"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPQ(t *testing.T) {
	err := wrapPQ("error checking reminder dispatch", &pq.Error{Code: pqUndefinedTable})
	assert.ErrorIs(t, err, ErrTrackingTableMissing)

	other := errors.New("connection reset")
	err = wrapPQ("error recording reminder dispatch", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrTrackingTableMissing)
}

func TestPostgresTracker(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.NewPostgresConnection(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	tracker := NewPostgresTracker(db)
	require.NoError(t, tracker.EnsureSchema(ctx))

	first := time.Date(2001, time.February, 3, 0, 0, 0, 0, time.UTC)
	later := first.AddDate(0, 0, 2)
	t.Cleanup(func() {
		_ = tracker.Reset(ctx, first)
		_ = tracker.Reset(ctx, later)
	})

	k := key(990001, reminder.TypeFirm, reminder.ChannelEmail)
	require.NoError(t, tracker.MarkSent(ctx, k, first.Add(15*time.Hour)))
	require.NoError(t, tracker.MarkSent(ctx, k, first))

	sent, err := tracker.WasSent(ctx, k, first)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = tracker.WasSent(ctx, key(990001, reminder.TypeFirm, reminder.ChannelWhatsApp), first)
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = tracker.WasSent(ctx, k, later)
	require.NoError(t, err)
	assert.False(t, sent)

	within, err := tracker.SentWithin(ctx, k, later, 3)
	require.NoError(t, err)
	assert.True(t, within)

	within, err = tracker.SentWithin(ctx, k, later, 1)
	require.NoError(t, err)
	assert.False(t, within)

	require.NoError(t, tracker.Reset(ctx, first))
	sent, err = tracker.WasSent(ctx, k, first)
	require.NoError(t, err)
	assert.False(t, sent)
}
