// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// Messenger sends text to a Telegram chat.
type Messenger interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}

// TelebotAdapter implements Messenger on top of gopkg.in/telebot.v3.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends to a user, group or channel ID.
func (a *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	_, err := a.bot.Send(telebot.ChatID(chatID), text, options)
	return err
}
