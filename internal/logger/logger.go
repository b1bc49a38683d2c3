// Package logger provides the ambient logging used by cmd/predictorctl.
// Nothing under store/, matrix/, similarity/, or
// recommend/ imports this package — the core never logs; logging is the
// caller's responsibility.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey string

const loggerContextKey contextKey = "logger.logger"

var defaultLogger = logrus.New()
var defaultEntry = logrus.NewEntry(defaultLogger)

// For returns the log entry carried on ctx, or the package default if none
// was attached with NewContext.
func For(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return defaultEntry
	}
	if entry, ok := ctx.Value(loggerContextKey).(*logrus.Entry); ok {
		return entry
	}
	return defaultEntry
}

// NewContext returns a child context carrying a log entry with fields
// merged onto the default logger.
func NewContext(parent context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(parent, loggerContextKey, For(parent).WithFields(fields))
}

// SetLevel adjusts the default logger's level.
func SetLevel(level logrus.Level) {
	defaultLogger.SetLevel(level)
}

// SetJSONOutput switches the default logger to JSON formatting when enabled,
// and back to plain text otherwise.
func SetJSONOutput(enabled bool) {
	if enabled {
		defaultLogger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	defaultLogger.SetFormatter(&logrus.TextFormatter{DisableQuote: true})
}
