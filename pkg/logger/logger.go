// Package logger provides leveled loggers for gemdclient.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// Logger is what components of gemdclient log with.
//
// *log.Logger of github.com/labstack/gommon satisfies this.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// New creates a logger writing to w at level.
func New(w io.Writer, prefix string, level log.Lvl) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetHeader("${time_rfc3339} ${level} ${prefix}")
	return l
}

// Null returns a logger which writes nothing.
func Null() *log.Logger {
	l := log.New("-")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// Default returns a logger writing warnings and errors to stderr.
func Default() *log.Logger {
	return New(os.Stderr, "gemd", log.WARN)
}

// ParseLevel converts one of "debug", "info", "warn", "error" and "off" to log.Lvl.
//
// Empty string is "warn".
func ParseLevel(level string) (log.Lvl, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG, nil
	case "info":
		return log.INFO, nil
	case "warn", "":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return log.WARN, fmt.Errorf("unknown log level: %q", level)
}
