package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"payment_recovery/internal/app"
	"payment_recovery/internal/domain/reminder"
	"payment_recovery/internal/infra/backend"
	"payment_recovery/internal/infra/config"
	idb "payment_recovery/internal/infra/database"
	"payment_recovery/internal/infra/logger"
	"payment_recovery/internal/infra/scheduler"
	"payment_recovery/internal/infra/senders"
	"payment_recovery/internal/infra/telegram"
	"payment_recovery/internal/infra/tracking"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	once := flag.Bool("once", false, "run a single reminder pass and exit")
	flag.Parse()

	cfg, err := config.LoadAutomation()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg.LogConfig)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"api_base_url":  cfg.APIBaseURL,
		"tracker":       cfg.TrackerBackend,
		"schedule_mode": cfg.ScheduleMode,
		"timezone":      cfg.Location.String(),
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Suppression tracker
	var tracker reminder.Tracker
	switch cfg.TrackerBackend {
	case config.TrackerPostgres:
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			mainLogger.Fatalf("Could not connect to database: %v", err)
		}
		defer db.Close()
		pgTracker := tracking.NewPostgresTracker(db)
		if err := pgTracker.EnsureSchema(ctx); err != nil {
			mainLogger.Fatalf("Could not prepare tracking schema: %v", err)
		}
		tracker = pgTracker
		mainLogger.Info("Postgres reminder tracker initialized")
	default:
		tracker = tracking.NewMemoryTracker(logger.Component("tracker"))
		mainLogger.Info("In-memory reminder tracker initialized")
	}

	engine, err := app.NewDecisionEngine(tracker, app.DecisionConfig{
		Mode:        app.ScheduleMode(cfg.ScheduleMode),
		CatchUpDays: cfg.CatchUpDays,
		Location:    cfg.Location,
	}, logger.Component("reminder_logic"))
	if err != nil {
		mainLogger.Fatalf("Could not build decision engine: %v", err)
	}

	client := backend.NewClient(backend.Config{
		BaseURL:       cfg.APIBaseURL,
		APIKey:        cfg.APIKey,
		Timeout:       cfg.APITimeout,
		MaxRetries:    cfg.MaxRetries,
		RetryDelay:    cfg.RetryDelay,
		BackoffFactor: cfg.RetryBackoffFactor,
	}, logger.Component("backend"))

	// Telegram is optional: without a token run reports only go to the log.
	var bot *telebot.Bot
	var downstream reminder.Reporter
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				l := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					l = l.WithField("sender_id", c.Sender().ID)
				}
				l.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.Fatalf("Could not create Telegram bot: %v", err)
		}
		if cfg.TelegramChatID != 0 {
			downstream = telegram.NewRunReporter(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID, logger.Component("run_reporter"))
		}
	}
	recorder := app.NewRunRecorder(downstream)

	service := app.NewReminderService(
		engine,
		client,
		client,
		[]reminder.Sender{
			senders.NewEmailSender(logger.Component("email_sender")),
			senders.NewWhatsAppSender(logger.Component("whatsapp_sender")),
		},
		app.ReminderServiceConfig{EnableEmail: cfg.EnableEmail, EnableWhatsApp: cfg.EnableWhatsApp},
		recorder,
		logger.Component("reminder_service"),
	)

	if *once {
		stats, err := service.ProcessReminders(ctx)
		if err != nil {
			mainLogger.Fatalf("Reminder pass failed: %v", err)
		}
		mainLogger.WithFields(logrus.Fields{
			"total": stats.Total, "sent": stats.Sent, "failed": stats.Failed, "skipped": stats.Skipped,
		}).Info("Single reminder pass complete")
		return
	}

	reminderScheduler := scheduler.NewReminderScheduler(service, cfg.ReminderCronSpec, cfg.Location, logger.Component("scheduler"))
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.Fatalf("Could not start scheduler: %v", err)
	}
	mainLogger.WithField("next_run", reminderScheduler.Next()).Info("Reminder scheduler running")

	if bot != nil {
		ops := app.NewOperatorService(service, recorder, cfg.TelegramOperatorID)
		telegram.RegisterOperatorCommands(ctx, bot, ops, logger.Component("telegram"))
		go bot.Start()
		mainLogger.Info("Telegram operator bot started")
	}

	<-ctx.Done()
	mainLogger.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	reminderScheduler.Stop()
	mainLogger.Info("Application shut down gracefully")
}
