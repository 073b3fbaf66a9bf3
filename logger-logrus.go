//go:build !tinygo

package rf24

import (
	"github.com/sirupsen/logrus"
)

func init() {
	log := logrus.New()
	log.Formatter = new(logrus.TextFormatter)
	log.Level = logrus.InfoLevel
	globalLogger = NewLogrusLogger(log)
}

// logrusLogger is the default logger on hosted platforms.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger adapts a logrus logger for SetLogger. Messages carry the
// field component=rf24. A nil logger selects the logrus standard logger.
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusLogger{entry: l.WithField("component", "rf24")}
}

func (l *logrusLogger) Debug(msg string) { l.entry.Debug(msg) }
func (l *logrusLogger) Info(msg string)  { l.entry.Info(msg) }
func (l *logrusLogger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *logrusLogger) Error(msg string) { l.entry.Error(msg) }
