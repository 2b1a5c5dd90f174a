package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter delivers bell alerts through a telebot.Bot.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage posts text to a chat. Link previews are off unless options
// say otherwise.
func (a *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{DisableWebPagePreview: true}
	}
	_, err := a.bot.Send(&telebot.Chat{ID: chatID}, text, options)
	return err
}
