// internal/infra/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"payment_recovery/internal/domain/reminder"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const (
	pendingInvoicesPath = "/api/invoices/pending-for-reminder"
	reminderLogPath     = "/api/reminders/log"
	serviceName         = "payment-recovery-automation"
)

// Config configures the backend client.
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	BackoffFactor float64
}

// Client talks to the invoicing backend. GET and POST calls are retried on
// connection errors, 429 and 5xx with exponential backoff.
type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	logger  *logrus.Entry
}

func NewClient(cfg Config, logger *logrus.Entry) *Client {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.RetryDelay
	rc.RetryWaitMax = maxWait(cfg)
	rc.Backoff = exponentialBackoff(cfg.BackoffFactor)
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{logger}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    rc,
		logger:  logger,
	}
}

func maxWait(cfg Config) time.Duration {
	if cfg.MaxRetries <= 0 || cfg.RetryDelay <= 0 {
		return 0
	}
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	return time.Duration(float64(cfg.RetryDelay) * math.Pow(factor, float64(cfg.MaxRetries)))
}

// exponentialBackoff waits min * factor^attempt, capped at max, and honours
// Retry-After on 429/503.
func exponentialBackoff(factor float64) retryablehttp.Backoff {
	if factor < 1 {
		factor = 1
	}
	return func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
			if wait := retryablehttp.DefaultBackoff(0, max, attemptNum, resp); wait > 0 && resp.Header.Get("Retry-After") != "" {
				return wait
			}
		}
		wait := time.Duration(float64(min) * math.Pow(factor, float64(attemptNum)))
		if max > 0 && wait > max {
			wait = max
		}
		return wait
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body any
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s payload: %w", method, path, err)
		}
		body = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Service-Name", serviceName)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.WithFields(logrus.Fields{"method": method, "path": path}).Debug("Calling backend")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

// GetPendingInvoicesForReminder fetches unpaid invoices. The backend may answer
// a bare list or an envelope {"data": [...]}.
func (c *Client) GetPendingInvoicesForReminder(ctx context.Context) ([]reminder.Invoice, error) {
	body, err := c.do(ctx, http.MethodGet, pendingInvoicesPath, nil)
	if err != nil {
		return nil, err
	}
	invoices, err := decodeInvoices(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pending invoices: %w", err)
	}
	c.logger.WithField("count", len(invoices)).Info("Retrieved pending invoices")
	return invoices, nil
}

func decodeInvoices(body []byte) ([]reminder.Invoice, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var invoices []reminder.Invoice
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &invoices); err != nil {
			return nil, err
		}
		return invoices, nil
	}
	var envelope struct {
		Data []reminder.Invoice `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

type logReminderRequest struct {
	InvoiceID    int64            `json:"invoiceId"`
	ReminderType reminder.Type    `json:"reminderType"`
	Channel      reminder.Channel `json:"channel"`
}

// LogReminder records a delivered reminder in the backend.
func (c *Client) LogReminder(ctx context.Context, invoiceID int64, t reminder.Type, ch reminder.Channel) error {
	log := c.logger.WithFields(logrus.Fields{"invoice_id": invoiceID, "reminder_type": t, "channel": ch})
	log.Info("Logging reminder")

	if _, err := c.do(ctx, http.MethodPost, reminderLogPath, logReminderRequest{
		InvoiceID:    invoiceID,
		ReminderType: t,
		Channel:      ch,
	}); err != nil {
		return fmt.Errorf("failed to log reminder for invoice %d: %w", invoiceID, err)
	}
	log.Info("Successfully logged reminder")
	return nil
}

// leveledLogger routes retryablehttp's own logging through logrus.
type leveledLogger struct {
	entry *logrus.Entry
}

func (l leveledLogger) fields(kv []interface{}) *logrus.Entry {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return l.entry.WithFields(f)
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.fields(kv).Error(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.fields(kv).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(msg) }
