package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TrackerMemory   = "memory"
	TrackerPostgres = "postgres"
)

// LogConfig is shared by both binaries.
type LogConfig struct {
	LogLevel    string
	LogFormat   string // json or text
	Environment string
}

// AutomationConfig holds configuration for the reminder daemon.
type AutomationConfig struct {
	LogConfig

	APIBaseURL         string
	APIKey             string
	APITimeout         time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
	RetryBackoffFactor float64

	Location           *time.Location
	ReminderCronSpec   string
	EnableEmail        bool
	EnableWhatsApp     bool
	ScheduleMode       string
	CatchUpDays        int
	TrackerBackend     string
	DatabaseURL        string
	TelegramToken      string
	TelegramChatID     int64
	TelegramOperatorID int64
}

// ExtractionConfig holds configuration for the extraction service.
type ExtractionConfig struct {
	LogConfig

	FileBasePath string
	Timeout      time.Duration
	Addr         string
	PdftotextBin string
}

// loadDotEnv reads .env if present. Existing env variables are never overridden.
func loadDotEnv() {
	_ = godotenv.Load()
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, def float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// getSeconds reads a possibly fractional number of seconds.
func getSeconds(key string, def float64) (time.Duration, error) {
	v, err := getFloat(key, def)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return time.Duration(v * float64(time.Second)), nil
}

func loadLogConfig() LogConfig {
	return LogConfig{
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),
	}
}

// LoadAutomation reads the reminder daemon configuration from the environment
// and .env file (if present).
func LoadAutomation() (*AutomationConfig, error) {
	loadDotEnv()

	cfg := &AutomationConfig{LogConfig: loadLogConfig()}
	var err error

	cfg.APIBaseURL = getEnv("JAVA_API_BASE_URL", "http://localhost:8080")
	cfg.APIKey = getEnv("JAVA_API_KEY", "")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("JAVA_API_KEY is not set")
	}
	if cfg.APITimeout, err = getSeconds("JAVA_API_TIMEOUT", 30); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getInt("MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("invalid MAX_RETRIES: must not be negative")
	}
	if cfg.RetryDelay, err = getSeconds("RETRY_DELAY", 1.0); err != nil {
		return nil, err
	}
	if cfg.RetryBackoffFactor, err = getFloat("RETRY_BACKOFF_FACTOR", 2.0); err != nil {
		return nil, err
	}

	tz := getEnv("SCHEDULER_TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", tz, err)
	}
	cfg.ReminderCronSpec = getEnv("REMINDER_CRON_SPEC", "0 9 * * *")

	if cfg.EnableEmail, err = getBool("ENABLE_EMAIL_REMINDERS", true); err != nil {
		return nil, err
	}
	if cfg.EnableWhatsApp, err = getBool("ENABLE_WHATSAPP_REMINDERS", true); err != nil {
		return nil, err
	}

	cfg.ScheduleMode = strings.ToLower(getEnv("REMINDER_SCHEDULE_MODE", "exact"))
	if cfg.ScheduleMode != "exact" && cfg.ScheduleMode != "catch_up" {
		return nil, fmt.Errorf("invalid REMINDER_SCHEDULE_MODE %q: want exact or catch_up", cfg.ScheduleMode)
	}
	if cfg.CatchUpDays, err = getInt("REMINDER_CATCH_UP_DAYS", 3); err != nil {
		return nil, err
	}
	if cfg.CatchUpDays < 0 {
		return nil, fmt.Errorf("invalid REMINDER_CATCH_UP_DAYS: must not be negative")
	}

	cfg.TrackerBackend = strings.ToLower(getEnv("TRACKER_BACKEND", TrackerMemory))
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	switch cfg.TrackerBackend {
	case TrackerMemory:
	case TrackerPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set (required for TRACKER_BACKEND=postgres)")
		}
	default:
		return nil, fmt.Errorf("invalid TRACKER_BACKEND %q: want memory or postgres", cfg.TrackerBackend)
	}
	if cfg.ScheduleMode == "catch_up" && cfg.TrackerBackend != TrackerPostgres {
		return nil, fmt.Errorf("REMINDER_SCHEDULE_MODE=catch_up requires TRACKER_BACKEND=postgres")
	}

	cfg.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	if raw := getEnv("TELEGRAM_REPORT_CHAT_ID", ""); raw != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_REPORT_CHAT_ID: %w", err)
		}
	}
	if raw := getEnv("TELEGRAM_OPERATOR_ID", ""); raw != "" {
		if cfg.TelegramOperatorID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_OPERATOR_ID: %w", err)
		}
	}

	return cfg, nil
}

// LoadExtraction reads the extraction service configuration.
func LoadExtraction() (*ExtractionConfig, error) {
	loadDotEnv()

	cfg := &ExtractionConfig{LogConfig: loadLogConfig()}
	var err error

	cfg.FileBasePath = getEnv("JAVA_FILE_BASE_PATH", "uploads/invoices")
	if cfg.Timeout, err = getSeconds("EXTRACTION_TIMEOUT", 300); err != nil {
		return nil, err
	}
	cfg.Addr = getEnv("EXTRACTION_ADDR", ":8000")
	cfg.PdftotextBin = getEnv("PDFTOTEXT_BIN", "pdftotext")
	return cfg, nil
}
