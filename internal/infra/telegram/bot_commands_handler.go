// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	adminTelegramID int64,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hola, %s. Soy el timbre escolar. Usa /help para ver los comandos.", c.Sender().FirstName))
		}

		logCtx.Info("User is unknown")
		return c.Send("Hola. Soy el timbre escolar del centro; solo la administración puede controlarme.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != adminTelegramID {
			logCtx.Info("User is unknown, sending restricted help.")
			return c.Send("No hay comandos disponibles para ti.")
		}

		var helpText strings.Builder
		helpText.WriteString("Comandos del timbre:\n\n")
		helpText.WriteString("`/bell_on`\n - Iniciar el programa con el horario guardado.\n\n")
		helpText.WriteString("`/bell_off`\n - Detener el programa (el timbre que está sonando termina).\n\n")
		helpText.WriteString("`/status`\n - Ver el estado del programa.\n\n")
		helpText.WriteString("`/timetable`\n - Ver el horario de mañana y tarde.\n\n")
		helpText.WriteString("`/set_slot <morning|afternoon> <slot> <campo> <valor>`\n - Cambiar un campo de un slot. ")
		helpText.WriteString("Slots: `hora1 hora2 hora3 recreo hora4 hora5 fin_clase`. ")
		helpText.WriteString("Campos: `name time time_start time_end audio offset duration`.\n\n")
		helpText.WriteString("`/history [cantidad]`\n - Ver los últimos timbres.\n\n")
		helpText.WriteString("`/help`\n - Mostrar este mensaje.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
