// Package logger configures the service's structured logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/optionchainsim/service/internal/config"
)

// New returns a configured zerolog.Logger: pretty console output in
// development, JSON in production.
func New(cfg *config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if cfg.IsDevelopment() {
		out := zerolog.ConsoleWriter{Out: os.Stderr}
		return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
