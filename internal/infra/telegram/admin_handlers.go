package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"school_bell/internal/app"
	"school_bell/internal/domain/timetable"
	idb "school_bell/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgUnauthorized = "Error: no tienes permisos para ejecutar este comando."

// RegisterAdminHandlers registers the bell control commands. Only the
// configured admin may use them.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, controlService *app.ControlService, adminTelegramID int64, loc *time.Location, baseLogger *logrus.Entry) {
	// adminOnly wraps a handler with the sender check and a per-command logger.
	adminOnly := func(command string, h func(c telebot.Context, log *logrus.Entry) error) {
		b.Handle(command, func(c telebot.Context) error {
			handlerLogger := baseLogger.WithFields(logrus.Fields{
				"handler":   command,
				"sender_id": c.Sender().ID,
			})
			handlerLogger.Info("Command received")

			if c.Sender().ID != adminTelegramID {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(msgUnauthorized)
			}
			return h(c, handlerLogger)
		})
	}

	adminOnly("/bell_on", func(c telebot.Context, log *logrus.Entry) error {
		err := controlService.StartBell(ctx, c.Sender().ID)
		if err != nil {
			logWithError := log.WithError(err)
			var cfgErr *timetable.ConfigurationError
			switch {
			case errors.Is(err, app.ErrBellAlreadyRunning):
				logWithError.Warn("Bell already running")
				return c.Send("El programa ya está activo.")
			case errors.As(err, &cfgErr):
				logWithError.Warn("Timetable is not valid, bell not started")
				return c.Send(fmt.Sprintf("El horario no es válido, el programa no se inició: %s", cfgErr.Error()))
			default:
				logWithError.Error("Failed to start bell")
				return c.Send(fmt.Sprintf("Ocurrió un error al iniciar el programa: %s", err.Error()))
			}
		}
		log.Info("Bell started")
		return c.Send("Programa iniciado. Estado: Activo")
	})

	adminOnly("/bell_off", func(c telebot.Context, log *logrus.Entry) error {
		if err := controlService.StopBell(ctx, c.Sender().ID); err != nil {
			if errors.Is(err, app.ErrBellNotRunning) {
				return c.Send("El programa ya estaba detenido.")
			}
			log.WithError(err).Error("Failed to stop bell")
			return c.Send(fmt.Sprintf("Ocurrió un error al detener el programa: %s", err.Error()))
		}
		log.Info("Bell stopped")
		return c.Send("Programa detenido. Estado: Inactivo")
	})

	adminOnly("/status", func(c telebot.Context, log *logrus.Entry) error {
		st, err := controlService.Status(ctx, c.Sender().ID)
		if err != nil {
			log.WithError(err).Error("Failed to read status")
			return c.Send("Ocurrió un error al consultar el estado.")
		}
		return c.Send(formatStatus(st))
	})

	adminOnly("/timetable", func(c telebot.Context, log *logrus.Entry) error {
		tt, err := controlService.Timetable(ctx, c.Sender().ID)
		if err != nil {
			log.WithError(err).Error("Failed to load timetable")
			return c.Send(fmt.Sprintf("Ocurrió un error al cargar el horario: %s", err.Error()))
		}
		return c.Send(formatTimetable(tt))
	})

	adminOnly("/set_slot", func(c telebot.Context, log *logrus.Entry) error {
		args := c.Args()
		// Expected format: /set_slot <period> <slot> <field> <value...>
		if len(args) < 4 {
			log.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Formato incorrecto. Usa: /set_slot <morning|afternoon> <slot> <campo> <valor>\n" +
				"Campos: name, time, time_start, time_end, audio, offset, duration")
		}
		period := strings.ToLower(args[0])
		key := timetable.SlotKey(strings.ToLower(args[1]))
		field := strings.ToLower(args[2])
		value := strings.Join(args[3:], " ")

		if !key.IsValid() {
			return c.Send(fmt.Sprintf("Slot desconocido %q.", key))
		}
		log = log.WithFields(logrus.Fields{"period": period, "slot": key, "field": field})

		slot, restarted, err := controlService.UpdateSlot(ctx, c.Sender().ID, period, key, field, value)
		if err != nil {
			logWithError := log.WithError(err)
			var (
				cfgErr  *timetable.ConfigurationError
				timeErr *timetable.TimeParseError
			)
			switch {
			case errors.Is(err, idb.ErrSlotNotFound):
				logWithError.Warn("Slot not found")
				return c.Send(fmt.Sprintf("No existe el slot %s en el turno %s.", key, period))
			case errors.Is(err, app.ErrFieldNotApplicable):
				return c.Send(fmt.Sprintf("El campo %s no aplica al slot %s.", field, key))
			case errors.Is(err, timetable.ErrUnknownField):
				return c.Send(fmt.Sprintf("Campo desconocido %q.", field))
			case errors.As(err, &timeErr), errors.As(err, &cfgErr):
				logWithError.Warn("Rejected slot edit")
				return c.Send(fmt.Sprintf("Valor no válido: %s", err.Error()))
			default:
				logWithError.Error("Failed to update slot")
				return c.Send(fmt.Sprintf("Ocurrió un error al guardar: %s", err.Error()))
			}
		}

		log.WithField("restarted", restarted).Info("Slot updated")
		msg := "Guardado: " + formatSlot(key, slot)
		if restarted {
			msg += "\nEl programa se reinició con el nuevo horario."
		}
		return c.Send(msg)
	})

	adminOnly("/history", func(c telebot.Context, log *logrus.Entry) error {
		limit := 0
		if args := c.Args(); len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return c.Send("Uso: /history [cantidad]")
			}
			limit = n
		}
		rings, err := controlService.History(ctx, c.Sender().ID, limit)
		if err != nil {
			log.WithError(err).Error("Failed to list rings")
			return c.Send("Ocurrió un error al consultar el historial.")
		}
		return c.Send(formatHistory(rings, loc))
	})
}
