// Package logging hands out scoped pion loggers. Levels are controlled with
// the PION_LOG_<LEVEL> environment variables understood by pion/logging.
package logging

import (
	"github.com/pion/logging"
)

var loggerFactory logging.LoggerFactory = logging.NewDefaultLoggerFactory()

// Factory returns the process-wide logger factory.
func Factory() logging.LoggerFactory {
	return loggerFactory
}

// NewLogger creates a logger for scope from the process-wide factory.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}
