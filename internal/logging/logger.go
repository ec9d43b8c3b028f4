// Package logging configures the process-wide logrus logger.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger for the given level and
// environment. Production logs JSON; everything else uses the text
// formatter.
func Setup(logLevel, environment string) {
	logrus.SetLevel(ParseLevel(logLevel))
	if environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// ParseLevel converts a string level to logrus.Level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithRun returns an entry tagged with the analysis run ID.
func WithRun(runID string) *logrus.Entry {
	return logrus.WithField("run_id", runID)
}
