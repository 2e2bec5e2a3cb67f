package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLogLevels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").Level)
	assert.Equal(t, logrus.InfoLevel, NewLogger("info").Level)
	assert.Equal(t, logrus.WarnLevel, NewLogger("WARN").Level)
	assert.Equal(t, logrus.ErrorLevel, NewLogger("error").Level)
	assert.Equal(t, logrus.InfoLevel, NewLogger("foobar").Level)
}

func TestFormat(t *testing.T) {
	log := NewLogger("info")
	buf := &bytes.Buffer{}
	log.Out = buf

	log.Infof("battery at %d%%", 42)
	log.Debug("not shown")
	assert.Equal(t, "[INFO] battery at 42%\n", buf.String())
}
