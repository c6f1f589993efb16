package contract

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. It writes text lines to stderr so stdout stays clean for reports.
var Logger = NewLogger(logrus.InfoLevel)

// NewLogger returns a text logger on stderr at the given level.
func NewLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	return l
}

// SetLogLevel changes the level of the process-wide logger.
func SetLogLevel(level logrus.Level) {
	Logger.SetLevel(level)
}
