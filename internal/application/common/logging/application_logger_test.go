package logging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level string) ApplicationLogger {
	t.Helper()
	logger, err := NewApplicationLogger(Config{Level: level, Format: "json", Output: "buffer"})
	require.NoError(t, err)
	return logger
}

func lastEntry(t *testing.T, logger ApplicationLogger) LogEntry {
	t.Helper()
	output := getLoggerOutput(logger)
	require.NotEmpty(t, output, "Expected log output to be captured")

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(output), &entry), "Log output should be valid JSON")
	return entry
}

func TestApplicationLogger_CreateStructuredLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "json to stderr",
			config: Config{Level: "INFO", Format: "json", Output: "stderr"},
		},
		{
			name:   "text to stdout",
			config: Config{Level: "DEBUG", Format: "text", Output: "stdout"},
		},
		{
			name:   "lower case level",
			config: Config{Level: "warn", Format: "json", Output: "buffer"},
		},
		{
			name:    "invalid level",
			config:  Config{Level: "INVALID", Format: "json", Output: "stdout"},
			wantErr: "invalid log level: INVALID",
		},
		{
			name:    "invalid format",
			config:  Config{Level: "INFO", Format: "xml", Output: "stdout"},
			wantErr: "invalid log format: xml",
		},
		{
			name:    "invalid output",
			config:  Config{Level: "INFO", Format: "json", Output: "syslog"},
			wantErr: "invalid log output: syslog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewApplicationLogger(tt.config)

			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				assert.Nil(t, logger)
				return
			}

			require.NoError(t, err)
			assert.Implements(t, (*ApplicationLogger)(nil), logger)
		})
	}
}

func TestApplicationLogger_LogLevels(t *testing.T) {
	logger := newBufferLogger(t, "DEBUG")
	ctx := WithCorrelationID(context.Background(), "test-correlation-123")

	tests := []struct {
		name    string
		logFunc func()
		level   string
		message string
	}{
		{
			name:    "debug log",
			logFunc: func() { logger.Debug(ctx, "debug message", Fields{"debug_field": "debug_value"}) },
			level:   "DEBUG",
			message: "debug message",
		},
		{
			name:    "info log",
			logFunc: func() { logger.Info(ctx, "info message", Fields{"info_field": "info_value"}) },
			level:   "INFO",
			message: "info message",
		},
		{
			name:    "warn log",
			logFunc: func() { logger.Warn(ctx, "warn message", nil) },
			level:   "WARN",
			message: "warn message",
		},
		{
			name:    "error log",
			logFunc: func() { logger.Error(ctx, "error message", Fields{"error_field": "error_value"}) },
			level:   "ERROR",
			message: "error message",
		},
		{
			name: "error with error object",
			logFunc: func() {
				logger.ErrorWithError(ctx, errors.New("test error"), "scan failed", Fields{"path": "app/page.tsx"})
			},
			level:   "ERROR",
			message: "scan failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.logFunc()

			entry := lastEntry(t, logger)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.message, entry.Message)
			assert.Equal(t, "test-correlation-123", entry.CorrelationID)
			assert.NotEmpty(t, entry.Timestamp)
			assert.Equal(t, "default", entry.Component)
		})
	}
}

func TestApplicationLogger_LevelFiltering(t *testing.T) {
	logger := newBufferLogger(t, "WARN")
	ctx := context.Background()

	logger.Debug(ctx, "dropped", nil)
	logger.Info(ctx, "dropped", nil)
	logger.LogPerformance(ctx, "analyze", time.Second, nil)
	assert.Empty(t, getLoggerLines(logger))

	logger.Warn(ctx, "kept", nil)
	logger.ErrorWithError(ctx, nil, "kept too", nil)

	lines := getLoggerLines(logger)
	require.Len(t, lines, 2)
	assert.Empty(t, lastEntry(t, logger).Error)
}

func TestApplicationLogger_CorrelationIDGeneration(t *testing.T) {
	logger := newBufferLogger(t, "INFO")

	logger.Info(WithCorrelationID(context.Background(), "existing-correlation-123"), "with id", Fields{})
	assert.Equal(t, "existing-correlation-123", lastEntry(t, logger).CorrelationID)

	logger.Info(context.Background(), "without id", Fields{})
	generated := lastEntry(t, logger).CorrelationID
	_, err := uuid.Parse(generated)
	assert.NoError(t, err, "Generated correlation ID should be valid UUID")
}

func TestApplicationLogger_StructuredFields(t *testing.T) {
	logger := newBufferLogger(t, "INFO")
	ctx := WithCorrelationID(context.Background(), "test-correlation")

	logger.Info(ctx, "Page analyzed", Fields{
		"path":        "app/page.tsx",
		"operation":   "analyze_page",
		"cache_hit":   true,
		"error_count": 0,
	})

	entry := lastEntry(t, logger)
	assert.Equal(t, "app/page.tsx", entry.Metadata["path"])
	assert.Equal(t, "analyze_page", entry.Operation)
	assert.Equal(t, true, entry.Metadata["cache_hit"])
	assert.Equal(t, float64(0), entry.Metadata["error_count"]) // JSON unmarshals numbers as float64
}

func TestApplicationLogger_ComponentLogging(t *testing.T) {
	logger := newBufferLogger(t, "INFO")

	for _, component := range []string{"export-collector", "page-analysis-service", "nats-publisher"} {
		t.Run(component, func(t *testing.T) {
			componentLogger := logger.WithComponent(component)
			componentLogger.Info(context.Background(), "Operation executed", nil)

			entry := lastEntry(t, componentLogger)
			assert.Equal(t, component, entry.Component)
			assert.Equal(t, "Operation executed", entry.Message)
		})
	}
}

func TestApplicationLogger_PerformanceLogging(t *testing.T) {
	logger := newBufferLogger(t, "INFO")
	ctx := WithCorrelationID(context.Background(), "perf-correlation")

	logger.LogPerformance(ctx, "scan", 1500*time.Millisecond, Fields{"files": 12})

	entry := lastEntry(t, logger)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Performance metrics for scan", entry.Message)
	assert.Equal(t, "scan", entry.Operation)
	assert.Equal(t, "1.5s", entry.Duration)
	assert.Equal(t, float64(12), entry.Metadata["files"])
}

func TestEnsureCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "keep-me")
	assert.Equal(t, "keep-me", CorrelationIDFromContext(EnsureCorrelationID(ctx)))

	fresh := EnsureCorrelationID(context.Background())
	_, err := uuid.Parse(CorrelationIDFromContext(fresh))
	require.NoError(t, err)

	//nolint:staticcheck // nil context is tolerated.
	assert.Empty(t, CorrelationIDFromContext(nil))
}
