package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// ApplicationLogger defines the interface for structured application logging
type ApplicationLogger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)
	ErrorWithError(ctx context.Context, err error, message string, fields Fields)
	LogPerformance(ctx context.Context, operation string, duration time.Duration, fields Fields)
	WithComponent(component string) ApplicationLogger
}

// Fields represents structured logging fields
type Fields map[string]interface{}

// Config represents logger configuration
type Config struct {
	Level  string
	Format string // json, text
	Output string // stdout, stderr, buffer (for testing)
}

// LogEntry represents the structure of log entries
type LogEntry struct {
	Timestamp     string                 `json:"timestamp"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlation_id"`
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation,omitempty"`
	Duration      string                 `json:"duration,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

var levelRank = map[string]int{ //nolint:gochecknoglobals // Immutable lookup table.
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// applicationLoggerImpl implements ApplicationLogger
type applicationLoggerImpl struct {
	config    Config
	component string
	buffer    *syncBuffer // For testing
	logger    *log.Logger
}

// syncBuffer guards the test buffer; log.Logger serializes writes but reads race with them.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewApplicationLogger creates a new application logger
func NewApplicationLogger(config Config) (ApplicationLogger, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	logger := &applicationLoggerImpl{config: config}

	switch config.Output {
	case "buffer":
		logger.buffer = &syncBuffer{}
		logger.logger = log.New(logger.buffer, "", 0)
	case "stdout":
		logger.logger = log.New(os.Stdout, "", 0)
	case "stderr":
		fallthrough
	default:
		logger.logger = log.New(os.Stderr, "", 0)
	}

	return logger, nil
}

// validateConfig validates logger configuration
func validateConfig(config Config) error {
	if _, ok := levelRank[strings.ToUpper(config.Level)]; !ok {
		return fmt.Errorf("invalid log level: %s", config.Level)
	}

	if !slices.Contains([]string{"json", "text"}, config.Format) {
		return fmt.Errorf("invalid log format: %s", config.Format)
	}

	if !slices.Contains([]string{"stdout", "stderr", "buffer"}, config.Output) {
		return fmt.Errorf("invalid log output: %s", config.Output)
	}

	return nil
}

// shouldLog determines if a message should be logged based on level
func (l *applicationLoggerImpl) shouldLog(level string) bool {
	return levelRank[level] >= levelRank[strings.ToUpper(l.config.Level)]
}

// Debug logs debug messages
func (l *applicationLoggerImpl) Debug(ctx context.Context, message string, fields Fields) {
	if l.shouldLog("DEBUG") {
		l.logEntry(ctx, "DEBUG", message, "", fields)
	}
}

// Info logs info messages
func (l *applicationLoggerImpl) Info(ctx context.Context, message string, fields Fields) {
	if l.shouldLog("INFO") {
		l.logEntry(ctx, "INFO", message, "", fields)
	}
}

// Warn logs warning messages
func (l *applicationLoggerImpl) Warn(ctx context.Context, message string, fields Fields) {
	if l.shouldLog("WARN") {
		l.logEntry(ctx, "WARN", message, "", fields)
	}
}

// Error logs error messages
func (l *applicationLoggerImpl) Error(ctx context.Context, message string, fields Fields) {
	if l.shouldLog("ERROR") {
		l.logEntry(ctx, "ERROR", message, "", fields)
	}
}

// ErrorWithError logs error messages with an error object
func (l *applicationLoggerImpl) ErrorWithError(ctx context.Context, err error, message string, fields Fields) {
	if !l.shouldLog("ERROR") {
		return
	}
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	l.logEntry(ctx, "ERROR", message, errStr, fields)
}

// LogPerformance logs performance metrics
func (l *applicationLoggerImpl) LogPerformance(
	ctx context.Context,
	operation string,
	duration time.Duration,
	fields Fields,
) {
	if !l.shouldLog("INFO") {
		return
	}
	merged := make(Fields, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	merged["operation"] = operation
	merged["duration"] = duration.String()
	l.logEntry(ctx, "INFO", fmt.Sprintf("Performance metrics for %s", operation), "", merged)
}

// WithComponent creates a new logger instance with a specific component
func (l *applicationLoggerImpl) WithComponent(component string) ApplicationLogger {
	return &applicationLoggerImpl{
		config:    l.config,
		component: component,
		buffer:    l.buffer,
		logger:    l.logger,
	}
}

// logEntry creates and logs a structured log entry
func (l *applicationLoggerImpl) logEntry(ctx context.Context, level, message, errorStr string, fields Fields) {
	component := l.component
	if component == "" {
		component = "default"
	}

	entry := &LogEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Level:         level,
		Message:       message,
		CorrelationID: getOrGenerateCorrelationID(ctx),
		Component:     component,
		Error:         errorStr,
		Metadata:      make(map[string]interface{}, len(fields)),
	}

	for key, value := range fields {
		switch key {
		case "operation":
			if operation, ok := value.(string); ok {
				entry.Operation = operation
			}
		case "duration":
			if duration, ok := value.(string); ok {
				entry.Duration = duration
			}
		}
		entry.Metadata[key] = value
	}

	l.writeLogEntry(entry)
}

// writeLogEntry handles the actual writing of log entries
func (l *applicationLoggerImpl) writeLogEntry(entry *LogEntry) {
	if l.config.Format == "json" {
		jsonData, err := json.Marshal(entry)
		if err != nil {
			return
		}
		l.logger.Println(string(jsonData))
		return
	}

	logLine := fmt.Sprintf("[%s] %s %s: %s", entry.Timestamp, entry.Level, entry.Component, entry.Message)
	if entry.Error != "" {
		logLine += " error=" + entry.Error
	}
	l.logger.Print(logLine)
}

// getLoggerOutput returns the last line written to a buffer logger.
func getLoggerOutput(logger ApplicationLogger) string {
	lines := getLoggerLines(logger)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// getLoggerLines returns every non-empty line written to a buffer logger.
func getLoggerLines(logger ApplicationLogger) []string {
	appLogger, ok := logger.(*applicationLoggerImpl)
	if !ok || appLogger.buffer == nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(appLogger.buffer.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
