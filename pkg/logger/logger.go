// pkg/logger/logger.go

package logger

import (
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var log *zap.Logger

// L returns the process-wide logger, or nil before initialization.
func L() *zap.Logger {
	return log
}

// SetLogger installs l as the process-wide logger for both zap and otelzap
// globals, so call sites can use otelzap.Ctx(ctx) uniformly.
func SetLogger(l *zap.Logger) {
	log = l
	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}

// GetLogger returns the global logger, initializing a console fallback if
// nothing has been set up yet.
func GetLogger() *zap.Logger {
	if log == nil {
		InitFallback()
	}
	return log
}

