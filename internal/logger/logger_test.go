package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/optionchainsim/service/internal/config"
)

func TestNewDefaultsToInfoOnUnparseableLevel(t *testing.T) {
	New(&config.Config{Env: "production", LogLevel: "not-a-level"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewHonorsConfiguredLevel(t *testing.T) {
	New(&config.Config{Env: "production", LogLevel: "warn"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestNewDevelopmentLoggerCarriesConfiguredLevel(t *testing.T) {
	log := New(&config.Config{Env: "development", LogLevel: "info"})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
