// Package monitoring holds the shared diagnostic logger.
package monitoring

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger.
var Logger = log.New()

// Logf is the package-level diagnostic logger. It defaults to Logger.Infof
// but may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = Logger.Infof

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// WithFields returns an entry on Logger carrying the given fields.
func WithFields(fields log.Fields) *log.Entry {
	return Logger.WithFields(fields)
}

// Configure sets the level and output format of Logger.
func Configure(level string, json bool) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	if json {
		Logger.SetFormatter(&log.JSONFormatter{})
	} else {
		Logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Mute discards all output from Logger and Logf. It returns a function that
// restores the previous output.
func Mute() func() {
	prevOut := Logger.Out
	prevLogf := Logf
	Logger.SetOutput(io.Discard)
	SetLogger(nil)
	return func() {
		Logger.SetOutput(prevOut)
		Logf = prevLogf
	}
}
