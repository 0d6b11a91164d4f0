package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"payment_recovery/internal/app"
	"payment_recovery/internal/domain/reminder"
	"payment_recovery/internal/infra/tracking"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	invoices []reminder.Invoice
	err      error
	calls    int
}

func (s *stubSource) GetPendingInvoicesForReminder(context.Context) ([]reminder.Invoice, error) {
	s.calls++
	return s.invoices, s.err
}

type loggedReminder struct {
	InvoiceID int64
	Type      reminder.Type
	Channel   reminder.Channel
}

type stubLog struct {
	mu      sync.Mutex
	entries []loggedReminder
	err     error
}

func (l *stubLog) LogReminder(_ context.Context, id int64, t reminder.Type, ch reminder.Channel) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, loggedReminder{InvoiceID: id, Type: t, Channel: ch})
	return nil
}

type stubSender struct {
	channel reminder.Channel
	err     error
	panics  bool
	sent    []reminder.Message
}

func (s *stubSender) Channel() reminder.Channel { return s.channel }

func (s *stubSender) Send(_ context.Context, _ reminder.Invoice, msg reminder.Message) error {
	if s.panics {
		panic("sender exploded")
	}
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubReporter struct {
	reports []reminder.RunReport
}

func (r *stubReporter) ReportRun(_ context.Context, report reminder.RunReport) error {
	r.reports = append(r.reports, report)
	return nil
}

type serviceFixture struct {
	engine   *app.DecisionEngine
	source   *stubSource
	log      *stubLog
	email    *stubSender
	whatsapp *stubSender
	reporter *stubReporter
	service  *app.ReminderService
}

func newServiceFixture(t *testing.T, cfg app.ReminderServiceConfig, invoices ...reminder.Invoice) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		engine:   newEngine(t, tracking.NewMemoryTracker(quietLogger()), app.DecisionConfig{}),
		source:   &stubSource{invoices: invoices},
		log:      &stubLog{},
		email:    &stubSender{channel: reminder.ChannelEmail},
		whatsapp: &stubSender{channel: reminder.ChannelWhatsApp},
		reporter: &stubReporter{},
	}
	f.service = app.NewReminderService(
		f.engine, f.source, f.log,
		[]reminder.Sender{f.email, f.whatsapp},
		cfg, f.reporter, quietLogger(),
	)
	return f
}

var bothChannels = app.ReminderServiceConfig{EnableEmail: true, EnableWhatsApp: true}

func invoiceDue(id int64, days int) reminder.Invoice {
	return reminder.Invoice{
		ID:            id,
		InvoiceNumber: "INV-100",
		DueDate:       dueIn(days),
		Amount:        decimal.RequireFromString("1250.00"),
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		CustomerPhone: "+12345678901",
	}
}

func TestProcessReminders_SendsOnPreferredChannelOnce(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, bothChannels, invoiceDue(1, 0))

	stats, err := f.service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Sent: 1}, stats)

	require.Len(t, f.email.sent, 1)
	assert.Empty(t, f.whatsapp.sent)
	assert.Equal(t, "jane@example.com", f.email.sent[0].Recipient)
	assert.Equal(t, "Payment Due Today - Invoice INV-100", f.email.sent[0].Subject)
	assert.Equal(t, []loggedReminder{{InvoiceID: 1, Type: reminder.TypeDue, Channel: reminder.ChannelEmail}}, f.log.entries)

	// second pass on the same day is fully suppressed
	stats, err = f.service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Skipped: 1}, stats)
	assert.Len(t, f.email.sent, 1)
	assert.Len(t, f.log.entries, 1)
}

func TestProcessReminders_SkipsUnscheduledAndContactless(t *testing.T) {
	noContact := invoiceDue(2, 0)
	noContact.CustomerEmail = ""
	noContact.CustomerPhone = ""
	badDate := invoiceDue(3, 0)
	badDate.DueDate = "someday"

	f := newServiceFixture(t, bothChannels, invoiceDue(1, -3), noContact, badDate)

	stats, err := f.service.ProcessReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 3, Skipped: 3}, stats)
	assert.Empty(t, f.email.sent)
	assert.Empty(t, f.whatsapp.sent)
	assert.Empty(t, f.log.entries)
}

func TestProcessReminders_FallsBackToWhatsApp(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, bothChannels, invoiceDue(1, 5))
	f.email.err = errors.New("smtp down")

	stats, err := f.service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Sent: 1}, stats)

	require.Len(t, f.whatsapp.sent, 1)
	assert.Equal(t, "+12345678901", f.whatsapp.sent[0].Recipient)
	assert.Equal(t, []loggedReminder{{InvoiceID: 1, Type: reminder.TypeGentle, Channel: reminder.ChannelWhatsApp}}, f.log.entries)

	// a failed send never consumes the slot
	assert.True(t, f.engine.ShouldSendReminder(ctx, 1, reminder.TypeGentle, reminder.ChannelEmail, refDay))
	assert.False(t, f.engine.ShouldSendReminder(ctx, 1, reminder.TypeGentle, reminder.ChannelWhatsApp, refDay))
}

func TestProcessReminders_AllChannelsFail(t *testing.T) {
	f := newServiceFixture(t, bothChannels, invoiceDue(1, -7))
	f.email.err = errors.New("smtp down")
	f.whatsapp.err = errors.New("gateway down")

	stats, err := f.service.ProcessReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Failed: 1}, stats)
	assert.Empty(t, f.log.entries)
}

func TestProcessReminders_RespectsDisabledChannels(t *testing.T) {
	f := newServiceFixture(t, app.ReminderServiceConfig{EnableWhatsApp: true}, invoiceDue(1, -15))

	stats, err := f.service.ProcessReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Empty(t, f.email.sent)
	require.Len(t, f.whatsapp.sent, 1)
	assert.Equal(t, reminder.TypeEscalation, f.whatsapp.sent[0].Type)

	emailOnly := invoiceDue(2, 0)
	emailOnly.CustomerPhone = ""
	f = newServiceFixture(t, app.ReminderServiceConfig{EnableWhatsApp: true}, emailOnly)
	stats, err = f.service.ProcessReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Skipped: 1}, stats)
}

func TestProcessReminders_BackendLogFailureKeepsSlot(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, bothChannels, invoiceDue(1, 0))
	f.log.err = errors.New("backend 500")

	stats, err := f.service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Failed: 1}, stats)
	assert.Len(t, f.email.sent, 1)
	assert.False(t, f.engine.ShouldSendReminder(ctx, 1, reminder.TypeDue, reminder.ChannelEmail, refDay))

	stats, err = f.service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Skipped: 1}, stats)
	assert.Len(t, f.email.sent, 1)
}

func TestProcessReminders_PanicIsContainedPerInvoice(t *testing.T) {
	f := newServiceFixture(t, app.ReminderServiceConfig{EnableEmail: true}, invoiceDue(1, 0), invoiceDue(2, 0))
	f.email.panics = true

	stats, err := f.service.ProcessReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 2, Failed: 2}, stats)
}

func TestProcessReminders_FetchFailure(t *testing.T) {
	f := newServiceFixture(t, bothChannels)
	f.source.err = errors.New("connection refused")

	stats, err := f.service.ProcessReminders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, reminder.Stats{}, stats)

	require.Len(t, f.reporter.reports, 1)
	assert.Error(t, f.reporter.reports[0].Err)
}

func TestProcessReminders_ReportsRun(t *testing.T) {
	f := newServiceFixture(t, bothChannels, invoiceDue(1, 0), invoiceDue(2, -1))

	stats, err := f.service.ProcessReminders(context.Background())
	require.NoError(t, err)

	require.Len(t, f.reporter.reports, 1)
	report := f.reporter.reports[0]
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, refDay, report.Day)
	assert.Equal(t, stats, report.Stats)
	assert.NoError(t, report.Err)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestProcessReminders_StopsOnCancelledContext(t *testing.T) {
	f := newServiceFixture(t, bothChannels, invoiceDue(1, 0), invoiceDue(2, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.ProcessReminders(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.email.sent)
}

type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSource) GetPendingInvoicesForReminder(context.Context) ([]reminder.Invoice, error) {
	close(b.entered)
	<-b.release
	return nil, nil
}

func TestProcessReminders_RejectsOverlappingPass(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	engine := newEngine(t, tracking.NewMemoryTracker(quietLogger()), app.DecisionConfig{})
	service := app.NewReminderService(engine, src, &stubLog{}, nil, bothChannels, nil, quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := service.ProcessReminders(context.Background())
		done <- err
	}()

	select {
	case <-src.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first pass never started")
	}

	_, err := service.ProcessReminders(context.Background())
	assert.ErrorIs(t, err, app.ErrPassInProgress)

	close(src.release)
	assert.NoError(t, <-done)
}

func TestProcessReminders_FallbackDeliveryCoversEmailSameDay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, bothChannels, invoiceDue(1, -7))
	f.email.err = errors.New("smtp down")

	stats, err := f.service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Sent: 1}, stats)
	require.Len(t, f.whatsapp.sent, 1)

	// mail is back, but the reminder already went out on WhatsApp today
	f.email.err = nil
	stats, err = f.service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Skipped: 1}, stats)
	assert.Empty(t, f.email.sent)
	assert.Len(t, f.whatsapp.sent, 1)
	assert.Len(t, f.log.entries, 1)
}

func TestProcessReminders_FallbackDeliveryCoversCatchUpWindow(t *testing.T) {
	ctx := context.Background()
	now := refDay.Add(9 * time.Hour)
	engine := newEngine(t, newHistoryTracker(), app.DecisionConfig{
		Mode:        app.ScheduleCatchUp,
		CatchUpDays: 3,
		Now:         func() time.Time { return now },
	})
	email := &stubSender{channel: reminder.ChannelEmail, err: errors.New("smtp down")}
	whatsapp := &stubSender{channel: reminder.ChannelWhatsApp}
	service := app.NewReminderService(engine, &stubSource{invoices: []reminder.Invoice{invoiceDue(1, -7)}}, &stubLog{},
		[]reminder.Sender{email, whatsapp}, bothChannels, nil, quietLogger())

	stats, err := service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	require.Len(t, whatsapp.sent, 1)
	assert.Equal(t, reminder.TypeFirm, whatsapp.sent[0].Type)

	// next day the invoice still classifies as FIRM and mail works again
	email.err = nil
	now = now.AddDate(0, 0, 1)
	stats, err = service.ProcessReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.Stats{Total: 1, Skipped: 1}, stats)
	assert.Empty(t, email.sent)
	assert.Len(t, whatsapp.sent, 1)
}
