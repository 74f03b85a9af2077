package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// NewLogger constructs a logrus logger from level/format inputs.
func NewLogger(level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	switch format {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	}

	return logger, nil
}
