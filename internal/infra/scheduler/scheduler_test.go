package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"payment_recovery/internal/app"
	"payment_recovery/internal/domain/reminder"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls    int
	err      error
	deadline bool
}

func (f *fakeRunner) ProcessReminders(ctx context.Context) (reminder.Stats, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return reminder.Stats{Total: 2, Sent: 1, Skipped: 1}, f.err
}

func quiet() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestRunOnce(t *testing.T) {
	logger, hook := test.NewNullLogger()
	runner := &fakeRunner{}
	s := NewReminderScheduler(runner, "0 9 * * *", nil, logrus.NewEntry(logger))

	s.RunOnce()
	assert.Equal(t, 1, runner.calls)
	assert.True(t, runner.deadline)
	assert.Equal(t, "Reminder job finished", hook.LastEntry().Message)
	assert.Equal(t, 1, hook.LastEntry().Data["sent"])
}

func TestRunOnce_LogsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	runner := &fakeRunner{err: app.ErrPassInProgress}
	s := NewReminderScheduler(runner, "0 9 * * *", nil, logrus.NewEntry(logger))

	s.RunOnce()
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	runner.err = errors.New("backend down")
	s.RunOnce()
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, 2, runner.calls)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := NewReminderScheduler(&fakeRunner{}, "not a cron spec", nil, quiet())
	assert.Error(t, s.Start())
}

func TestStart_SchedulesInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	s := NewReminderScheduler(&fakeRunner{}, "0 9 * * *", loc, quiet())
	assert.True(t, s.Next().IsZero())

	require.NoError(t, s.Start())
	defer s.Stop()

	next := s.Next()
	require.False(t, next.IsZero())
	local := next.In(loc)
	assert.Equal(t, 9, local.Hour())
	assert.Equal(t, 0, local.Minute())
	assert.True(t, next.After(time.Now()))
}
