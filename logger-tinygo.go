//go:build tinygo

package rf24

import (
	"io"
	"machine"
)

func init() {
	globalLogger = NewSerialLogger(machine.Serial, false)
}

// serialLogger writes logfmt-like lines, the same shape logrus produces on
// hosted builds, without pulling fmt into the binary.
type serialLogger struct {
	w     io.Writer
	debug bool
}

// NewSerialLogger returns a Logger writing to w, usually machine.Serial.
// Debug messages are dropped unless debug is set.
func NewSerialLogger(w io.Writer, debug bool) Logger {
	return &serialLogger{w: w, debug: debug}
}

func (l *serialLogger) log(level, msg string) {
	l.w.Write([]byte("level=" + level + " component=rf24 msg=\"" + msg + "\"\r\n"))
}

func (l *serialLogger) Debug(msg string) {
	if l.debug {
		l.log("debug", msg)
	}
}

func (l *serialLogger) Info(msg string)  { l.log("info", msg) }
func (l *serialLogger) Warn(msg string)  { l.log("warning", msg) }
func (l *serialLogger) Error(msg string) { l.log("error", msg) }
