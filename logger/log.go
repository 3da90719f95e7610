// Package logger wraps logrus with namespaced, key/value structured loggers.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides a structured logger interface.
type Logger struct {
	logrus *logrus.Logger
	entry  *logrus.Entry
}

// NewLogger returns a new Logger instance for the namespace "ns",
// configured with "conf".
func NewLogger(ns string, conf Config) *Logger {
	l := logrus.New()
	e := logrus.NewEntry(l).WithFields(logrus.Fields{"ns": ns})
	log := &Logger{l, e}
	log.Configure(conf)
	return log
}

// Configure configures the level, formatter and output of the logger.
func (l *Logger) Configure(conf Config) {
	l.SetLevel(conf.Level)

	switch strings.ToLower(conf.Formatter) {
	case "json":
		l.SetFormatter(&jsonFormatter{conf: conf.JSONFormat})

	// Default to text
	default:
		l.SetFormatter(&textFormatter{
			conf.TextFormat,
			jsonFormatter{conf: conf.JSONFormat},
		})
	}

	if conf.OutputFile != "" {
		logFile, err := os.OpenFile(
			conf.OutputFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666,
		)
		if err != nil {
			l.Error("Can't open log output", "output", conf.OutputFile, "error", err)
		} else {
			l.SetOutput(logFile)
		}
	}
}

// SetLevel sets the level of logging. Unknown levels fall back to "info".
func (l *Logger) SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		l.logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.logrus.SetLevel(logrus.WarnLevel)
	case "error":
		l.logrus.SetLevel(logrus.ErrorLevel)
	default:
		l.logrus.SetLevel(logrus.InfoLevel)
	}
}

// SetFormatter sets the formatter of the logger.
func (l *Logger) SetFormatter(f logrus.Formatter) {
	l.logrus.SetFormatter(f)
}

// SetOutput sets the output of the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.logrus.SetOutput(w)
}

// Discard configures the logger to discard all logs.
func (l *Logger) Discard() {
	l.SetOutput(io.Discard)
}

// Debug logs a debug message.
//
// After the first argument, arguments are key-value pairs which are written as structured logs.
//
//	log.Debug("Some message here", "key1", value1, "key2", value2)
func (l *Logger) Debug(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Debug(msg)
}

// Info logs an info message.
//
// After the first argument, arguments are key-value pairs which are written as structured logs.
//
//	log.Info("Some message here", "key1", value1, "key2", value2)
func (l *Logger) Info(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Warn(msg)
}

// Error logs an error message
//
// After the first argument, arguments are key-value pairs which are written as structured logs.
//
//	log.Error("Some message here", "key1", value1, "key2", value2)
//
// Error has a two-argument version that can be used as a shortcut.
//
//	err := writeConfig()
//	log.Error("Couldn't write config", err)
func (l *Logger) Error(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Error(msg)
}

// WithFields returns a new Logger instance with the given fields added to all log messages.
func (l *Logger) WithFields(args ...interface{}) *Logger {
	return &Logger{l.logrus, l.entry.WithFields(fields(args...))}
}

// recoverLogErr is used to recover from any panics during logging.
// Panics aren't expected of course, but logging should never crash
// a program, so this failsafe tries to prevent those crashes.
func recoverLogErr() {
	if r := recover(); r != nil {
		fmt.Println("Recovered from logging panic", r)
	}
}

// PrintSimpleError prints out an error message with a red "ERROR:" prefix.
func PrintSimpleError(err error) {
	fmt.Fprintf(os.Stderr, "\x1b[%dm%s\x1b[0m %s\n", 31, "ERROR:", err.Error())
}

func fields(args ...interface{}) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)

	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			f["error"] = err.Error()
		} else {
			f["unknown"] = args[0]
		}
		return f
	}

	if len(args)%2 != 0 {
		f["unknown"] = args[len(args)-1]
		args = args[:len(args)-1]
	}

	for i := 0; i < len(args); i += 2 {
		k := fmt.Sprintf("%v", args[i])
		v := args[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		f[k] = v
	}
	return f
}
