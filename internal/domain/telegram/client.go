package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to a Telegram chat. The bell uses it to reach the
// admin; keeping it an interface keeps the app layer free of the bot itself.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
