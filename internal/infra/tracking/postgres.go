// internal/infra/tracking/postgres.go
package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payment_recovery/internal/domain/reminder"

	"github.com/lib/pq"
)

var ErrTrackingTableMissing = fmt.Errorf("reminder_dispatches table does not exist, run EnsureSchema first")

// undefined_table
const pqUndefinedTable = "42P01"

const createDispatchesTable = `CREATE TABLE IF NOT EXISTS reminder_dispatches (
    invoice_id    BIGINT      NOT NULL,
    reminder_type VARCHAR(32) NOT NULL,
    channel       VARCHAR(32) NOT NULL,
    sent_on       DATE        NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (invoice_id, reminder_type, channel, sent_on)
)`

// PostgresTracker keeps suppression keys in Postgres, one row per key and day.
// Several scheduler instances may share it and it survives restarts.
type PostgresTracker struct {
	db *sql.DB
}

func NewPostgresTracker(db *sql.DB) *PostgresTracker {
	return &PostgresTracker{db: db}
}

// EnsureSchema creates the dispatch table when it is missing.
func (r *PostgresTracker) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDispatchesTable); err != nil {
		return fmt.Errorf("error creating reminder_dispatches table: %w", err)
	}
	return nil
}

func (r *PostgresTracker) WasSent(ctx context.Context, key reminder.SuppressionKey, day time.Time) (bool, error) {
	d := dateOf(day)
	return r.exists(ctx, key, d, d)
}

func (r *PostgresTracker) SentWithin(ctx context.Context, key reminder.SuppressionKey, day time.Time, days int) (bool, error) {
	to := dateOf(day)
	from := to.AddDate(0, 0, -days)
	return r.exists(ctx, key, from, to)
}

func (r *PostgresTracker) exists(ctx context.Context, key reminder.SuppressionKey, from, to time.Time) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM reminder_dispatches
                 WHERE invoice_id = $1 AND reminder_type = $2 AND channel = $3
                   AND sent_on BETWEEN $4 AND $5)`
	var found bool
	err := r.db.QueryRowContext(ctx, query, key.InvoiceID, string(key.Type), string(key.Channel),
		from.Format(dateLayout), to.Format(dateLayout)).Scan(&found)
	if err != nil {
		return false, wrapPQ("error checking reminder dispatch", err)
	}
	return found, nil
}

func (r *PostgresTracker) MarkSent(ctx context.Context, key reminder.SuppressionKey, day time.Time) error {
	query := `INSERT INTO reminder_dispatches (invoice_id, reminder_type, channel, sent_on)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (invoice_id, reminder_type, channel, sent_on) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, key.InvoiceID, string(key.Type), string(key.Channel), dateOf(day).Format(dateLayout))
	if err != nil {
		return wrapPQ("error recording reminder dispatch", err)
	}
	return nil
}

func (r *PostgresTracker) Reset(ctx context.Context, day time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminder_dispatches WHERE sent_on = $1`, dateOf(day).Format(dateLayout))
	if err != nil {
		return wrapPQ("error resetting reminder dispatches", err)
	}
	return nil
}

func wrapPQ(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable {
		return fmt.Errorf("%s: %w", msg, ErrTrackingTableMissing)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
