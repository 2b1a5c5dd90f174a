// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"school_bell/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is shared by every component; each one logs through Component.
var Log = logrus.New()

var structuredEnvironments = map[string]bool{
	"production": true,
	"staging":    true,
}

// Init applies the configured level and picks JSON output for deployed
// environments and colored text everywhere else.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		Log.WithError(err).WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if structuredEnvironments[strings.ToLower(cfg.Environment)] {
		Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized")
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
