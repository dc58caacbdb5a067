package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. level is one of debug|info|warn|error
// (anything else falls back to info); format is text or json. debug forces
// the debug level regardless of level.
func New(level, format string, debug bool) *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(os.Stdout)

	if format == "json" {
		lg.SetFormatter(&logrus.JSONFormatter{})
	} else {
		lg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lg.SetLevel(ParseLevel(level))
	if debug {
		lg.SetLevel(logrus.DebugLevel)
	}
	return lg
}

func ParseLevel(level string) logrus.Level {
	switch level {
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
