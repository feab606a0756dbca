package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/haxagon/internal/config"
)

func TestSetupJSON(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	})

	var buf bytes.Buffer
	require.NoError(t, Setup(config.LogConfig{Level: "warn", Format: "json"}, &buf))

	logrus.Info("hidden")
	logrus.WithField("session", "s1").Warn("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "s1", line["session"])
}

func TestSetupRejects(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Setup(config.LogConfig{Level: "loud"}, &buf))
	assert.Error(t, Setup(config.LogConfig{Level: "info", Format: "xml"}, &buf))
}
