// file: logger/logger.go

package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger. It is usable before Init is called
// so packages and tests never dereference a nil logger.
var Log = logrus.New()

// Init configures the global logger with JSON output at info level.
func Init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetLevel(logrus.InfoLevel)
}

// SetLevel changes the log level from its textual name (e.g. "debug", "warn").
// Unknown names leave the current level unchanged.
func SetLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		Log.WithField("level", name).Warn("Unknown log level, keeping current level")
		return
	}
	Log.SetLevel(level)
}
