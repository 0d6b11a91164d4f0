// internal/infra/telegram/commands.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payment_recovery/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const manualRunTimeout = 10 * time.Minute

// RegisterOperatorCommands wires the operator commands on the bot.
func RegisterOperatorCommands(ctx context.Context, b *telebot.Bot, ops *app.OperatorService, baseLogger *logrus.Entry) {
	handlerLogger := func(c telebot.Context, command string) *logrus.Entry {
		return baseLogger.WithFields(logrus.Fields{"command": command, "sender_id": c.Sender().ID})
	}

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := handlerLogger(c, "/start")
		logCtx.Info("Processing command")
		if !ops.IsOperator(c.Sender().ID) {
			logCtx.Info("User is not an operator")
			return c.Send("This bot reports payment reminder runs to operators only.")
		}
		return c.Send(fmt.Sprintf("Hello %s! Use /help to see the available commands.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		handlerLogger(c, "/help").Info("Processing command")
		if !ops.IsOperator(c.Sender().ID) {
			return c.Send("This bot reports payment reminder runs to operators only.")
		}
		var help strings.Builder
		help.WriteString("Operator commands:\n\n")
		help.WriteString("`/run_reminders`\n - Run a reminder pass now.\n\n")
		help.WriteString("`/last_run`\n - Show the summary of the latest pass.\n\n")
		help.WriteString("`/help`\n - Show this message.")
		return c.Send(help.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/run_reminders", func(c telebot.Context) error {
		logCtx := handlerLogger(c, "/run_reminders")
		logCtx.Info("Command received")

		runCtx, cancel := context.WithTimeout(ctx, manualRunTimeout)
		defer cancel()
		stats, err := ops.TriggerRun(runCtx, c.Sender().ID)
		switch {
		case errors.Is(err, app.ErrOperatorNotAuthorized):
			logCtx.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to run this command.")
		case errors.Is(err, app.ErrPassInProgress):
			return c.Send("A reminder pass is already running, try again later.")
		case err != nil:
			logCtx.WithError(err).Error("Manual reminder pass failed")
			return c.Send("Reminder pass failed: " + err.Error())
		}
		return c.Send(fmt.Sprintf("Reminder pass finished. Total: %d, sent: %d, failed: %d, skipped: %d.",
			stats.Total, stats.Sent, stats.Failed, stats.Skipped))
	})

	b.Handle("/last_run", func(c telebot.Context) error {
		logCtx := handlerLogger(c, "/last_run")
		logCtx.Info("Command received")

		report, err := ops.LastRun(c.Sender().ID)
		switch {
		case errors.Is(err, app.ErrOperatorNotAuthorized):
			logCtx.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to run this command.")
		case errors.Is(err, app.ErrNoRunRecorded):
			return c.Send("No reminder pass has run since startup.")
		case err != nil:
			return c.Send("Could not load the last run: " + err.Error())
		}
		return c.Send(FormatRunReport(report), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
