package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL     string
	TelegramToken   string // Optional: without it the bell runs unattended
	AdminTelegramID int64
	LogLevel        string
	Environment     string
	TickSpec        string         // Cron spec of the bell engine tick
	Location        *time.Location // Zone used to read the wall clock
	Autostart       bool
	SampleRate      int // Speaker sample rate (Hz)
	BufferSize      int // Speaker buffer (samples)
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set (required with TELEGRAM_TOKEN)")
		}
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.TickSpec = os.Getenv("BELL_TICK_SPEC")
	if cfg.TickSpec == "" {
		cfg.TickSpec = "* * * * *" // Default: every minute, on the minute
	}

	cfg.Location = time.Local
	if tz := os.Getenv("BELL_TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid BELL_TIMEZONE: %w", err)
		}
	}

	cfg.Autostart = true
	if v := os.Getenv("BELL_AUTOSTART"); v != "" {
		cfg.Autostart, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BELL_AUTOSTART: %w", err)
		}
	}

	cfg.SampleRate, err = positiveInt("AUDIO_SAMPLE_RATE", 44100)
	if err != nil {
		return nil, err
	}
	cfg.BufferSize, err = positiveInt("AUDIO_BUFFER_SIZE", cfg.SampleRate/10) // Default: 100ms
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
}
