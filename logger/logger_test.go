package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HOUSE_WATCH_ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("HOUSE_WATCH_ENVIRONMENT", "development")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())
}

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForSource("Idealista").Info().Msg("fetched")
	assert.Contains(t, buf.String(), `"source":"Idealista"`)
	assert.Contains(t, buf.String(), `"message":"fetched"`)

	buf.Reset()
	ForNotifier("telegram").Warn().Msg("down")
	assert.Contains(t, buf.String(), `"component":"notifier"`)
	assert.Contains(t, buf.String(), `"channel":"telegram"`)

	buf.Reset()
	ForStore().Error().Err(errors.New("disk full")).Str("path", "state.json").Msg("save failed")
	assert.Contains(t, buf.String(), `"component":"store"`)
	assert.Contains(t, buf.String(), `"error":"disk full"`)
	assert.Contains(t, buf.String(), `"path":"state.json"`)
}
