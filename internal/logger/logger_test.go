package logger

import (
	"testing"

	"github.com/deppfellow/attestation-plugin/internal/config"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
	}
	for name, want := range cases {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestGetPgxTraceLogLevel(t *testing.T) {
	assert.Equal(t, tracelog.LogLevelDebug, GetPgxTraceLogLevel(zerolog.DebugLevel))
	assert.Equal(t, tracelog.LogLevelError, GetPgxTraceLogLevel(zerolog.ErrorLevel))
	assert.Equal(t, tracelog.LogLevelNone, GetPgxTraceLogLevel(zerolog.Disabled))
}

func TestLoggerService(t *testing.T) {
	t.Run("Should stay disabled without license key", func(t *testing.T) {
		svc := NewLoggerService(config.DefaultObservabilityConfig())
		assert.Nil(t, svc.GetApplication())
		svc.Shutdown()
	})

	t.Run("Should build logger at configured level", func(t *testing.T) {
		cfg := config.DefaultObservabilityConfig()
		cfg.Logging.Level = "warn"
		l := NewLogger(cfg)
		assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
	})

	t.Run("Should leave logger untouched without transaction", func(t *testing.T) {
		l := zerolog.Nop()
		assert.Equal(t, l, WithTraceContext(l, nil))
	})
}
