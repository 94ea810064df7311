package logger_test

import (
	"bytes"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"

	"github.com/opst/gemdclient/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]log.Lvl{
		"":      log.WARN,
		"debug": log.DEBUG,
		"INFO":  log.INFO,
		"warn":  log.WARN,
		"error": log.ERROR,
		"off":   log.OFF,
	} {
		t.Run(in, func(t *testing.T) {
			got, err := logger.ParseLevel(in)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := logger.ParseLevel("verbose")
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	buf := new(bytes.Buffer)
	l := logger.New(buf, "test", log.INFO)

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")
}
