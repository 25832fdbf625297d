package slogger

import (
	"context"
	"pagestatic/internal/application/common/logging"
	"sync"
	"time"
)

// Fields is an alias for logging.Fields for convenience.
type Fields = logging.Fields

// LoggerManager manages logger instances with proper encapsulation.
type LoggerManager struct {
	mu     sync.RWMutex
	logger logging.ApplicationLogger
}

var (
	defaultManagerInstance *LoggerManager //nolint:gochecknoglobals // Required for singleton logging infrastructure
	defaultManagerOnce     sync.Once      //nolint:gochecknoglobals // Required for thread-safe singleton initialization
)

// getDefaultManager returns the singleton logger manager instance.
func getDefaultManager() *LoggerManager {
	defaultManagerOnce.Do(func() {
		defaultManagerInstance = &LoggerManager{}
	})
	return defaultManagerInstance
}

// getLogger returns the logger instance, initializing it if necessary.
// Stdout carries scan reports, so the default logger writes to stderr.
func (lm *LoggerManager) getLogger() logging.ApplicationLogger {
	lm.mu.RLock()
	logger := lm.logger
	lm.mu.RUnlock()
	if logger != nil {
		return logger
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.logger == nil {
		l, err := logging.NewApplicationLogger(logging.Config{
			Level:  "INFO",
			Format: "json",
			Output: "stderr",
		})
		if err != nil {
			// Fallback - this should not happen with valid config
			panic("Failed to initialize logger: " + err.Error())
		}
		lm.logger = l
	}
	return lm.logger
}

// SetLogger allows setting a custom logger.
func (lm *LoggerManager) SetLogger(logger logging.ApplicationLogger) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.logger = logger
}

func getLogger() logging.ApplicationLogger {
	return getDefaultManager().getLogger()
}

// SetGlobalLogger replaces the process-wide logger (configured from the CLI, or swapped in tests).
func SetGlobalLogger(logger logging.ApplicationLogger) {
	getDefaultManager().SetLogger(logger)
}

// Configure builds a logger from cfg and installs it globally.
func Configure(cfg logging.Config) error {
	logger, err := logging.NewApplicationLogger(cfg)
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)
	return nil
}

// Debug logs a debug message with context.
func Debug(ctx context.Context, msg string, fields Fields) {
	getLogger().Debug(ctx, msg, fields)
}

// Info logs an info message with context.
func Info(ctx context.Context, msg string, fields Fields) {
	getLogger().Info(ctx, msg, fields)
}

// Warn logs a warning message with context.
func Warn(ctx context.Context, msg string, fields Fields) {
	getLogger().Warn(ctx, msg, fields)
}

// Error logs an error message with context.
func Error(ctx context.Context, msg string, fields Fields) {
	getLogger().Error(ctx, msg, fields)
}

// ErrorWithError logs an error message with an error object and context.
func ErrorWithError(ctx context.Context, err error, msg string, fields Fields) {
	getLogger().ErrorWithError(ctx, err, msg, fields)
}

// LogPerformance logs the duration of an operation.
func LogPerformance(ctx context.Context, operation string, duration time.Duration, fields Fields) {
	getLogger().LogPerformance(ctx, operation, duration, fields)
}

// WithComponent returns a logger with a specific component name.
func WithComponent(component string) logging.ApplicationLogger {
	return getLogger().WithComponent(component)
}
