package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter bridges console logging with the categorized multi-logger.
// Components that want a plain *zap.Logger talk to the console logger, while
// lifecycle events go to the category files.
type LoggerAdapter struct {
	console *zap.Logger
	multi   *MultiLogger
}

// NewLoggerAdapter creates an adapter wrapping a console logger and a
// multi-logger
func NewLoggerAdapter(console *zap.Logger, multi *MultiLogger) *LoggerAdapter {
	return &LoggerAdapter{
		console: console,
		multi:   multi,
	}
}

// GetSingleLogger returns the console logger for general use
func (la *LoggerAdapter) GetSingleLogger() *zap.Logger {
	return la.console
}

// GetMultiLogger returns the underlying multi-logger
func (la *LoggerAdapter) GetMultiLogger() *MultiLogger {
	return la.multi
}

// Queue returns the queue category logger
func (la *LoggerAdapter) Queue() *zap.Logger {
	return la.multi.Queue()
}

// Attempt returns the attempt category logger
func (la *LoggerAdapter) Attempt() *zap.Logger {
	return la.multi.Attempt()
}

// WebAccess returns the web access category logger
func (la *LoggerAdapter) WebAccess() *zap.Logger {
	return la.multi.WebAccess()
}

// Error returns the error category logger
func (la *LoggerAdapter) Error() *zap.Logger {
	return la.multi.Error()
}

// LogError logs to both the console and the error log file
func (la *LoggerAdapter) LogError(msg string, fields ...zap.Field) {
	la.console.Error(msg, fields...)
	la.multi.LogAppError(msg, fields...)
}

// Sync flushes both loggers
func (la *LoggerAdapter) Sync() error {
	_ = la.console.Sync()
	return la.multi.Sync()
}
