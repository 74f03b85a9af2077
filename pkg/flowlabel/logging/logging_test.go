package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	logger, err = NewLogger("warn", "normal")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)

	_, err = NewLogger("loud", "normal")
	assert.Error(t, err)
}
