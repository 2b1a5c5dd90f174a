package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school_bell/internal/app"
	domainTelegram "school_bell/internal/domain/telegram"
	"school_bell/internal/infra/audio"
	"school_bell/internal/infra/audio/speaker"
	"school_bell/internal/infra/config"
	idb "school_bell/internal/infra/database"
	"school_bell/internal/infra/logger"
	"school_bell/internal/infra/scheduler"
	"school_bell/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("School Bell starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithField("environment", cfg.Environment).WithField("timezone", cfg.Location.String()).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := idb.NewPostgresConnection(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		mainLogger.WithError(err).Fatal("Could not prepare database schema")
	}
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	timetableRepo := idb.NewPostgresTimetableRepository(db)
	ringRepo := idb.NewPostgresRingRepository(db)

	// Initialize Audio
	output, err := speaker.New(cfg.SampleRate, cfg.BufferSize)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not open audio output")
	}
	defer output.Close()
	player := audio.NewPlayer(output, logger.Component("audio"))

	// Initialize Telegram Bot (optional)
	var (
		bot      *telebot.Bot
		tgClient domainTelegram.Client
	)
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID).WithField("text", c.Text())
				}
				entry.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		tgClient = telegram.NewTelebotAdapter(bot)
	} else {
		mainLogger.Warn("TELEGRAM_TOKEN not set, running without remote control")
	}

	// Initialize Services and Engine
	ringService := app.NewRingService(ringRepo, tgClient, cfg.AdminTelegramID, logger.Component("rings"))
	engine := scheduler.NewBellEngine(player, ringService, logger.Component("scheduler"), cfg.TickSpec, cfg.Location)
	defer engine.Close()
	controlService := app.NewControlService(engine, timetableRepo, ringRepo, cfg.AdminTelegramID, logger.Component("control"))

	if cfg.Autostart {
		if err := controlService.Boot(ctx); err != nil {
			mainLogger.WithError(err).Error("Could not start bell engine at boot")
			if bot == nil {
				mainLogger.Fatal("Nothing left to do without a running engine or a control bot")
			}
		}
	}

	if bot != nil {
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, logger.Component("telegram"))
		telegram.RegisterAdminHandlers(ctx, bot, controlService, cfg.AdminTelegramID, cfg.Location, logger.Component("telegram"))
		mainLogger.Info("Telegram command handlers registered.")

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
		defer bot.Stop()
	}

	mainLogger.Info("Application setup complete.")
	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
}
