package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"pagestatic/internal/application/common/logging"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/config"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/domain/errors/domain"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	defaultConnectTimeout = 5 * time.Second

	circuitMaxFailures  = 3
	circuitOpenDuration = 30 * time.Second
)

// natsConn is the subset of *nats.Conn the publisher relies on.
type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	IsConnected() bool
	Close()
}

// ConnectionHealthStatus represents the health status of the NATS connection.
type ConnectionHealthStatus struct {
	Connected      bool          `json:"connected"`
	LastError      string        `json:"last_error,omitempty"`
	Uptime         time.Duration `json:"uptime"`
	Reconnects     int           `json:"reconnects"`
	CircuitBreaker string        `json:"circuit_breaker"`
}

// MessageMetrics tracks report publishing metrics.
type MessageMetrics struct {
	PublishedCount    int64         `json:"published_count"`
	FailedCount       int64         `json:"failed_count"`
	AverageLatency    time.Duration `json:"average_latency"`
	LastPublishedTime time.Time     `json:"last_published_time"`
}

// PageReportMessage is the payload published for every analyzed page.
type PageReportMessage struct {
	MessageID string             `json:"message_id"`
	Timestamp time.Time          `json:"timestamp"`
	Report    *entity.PageReport `json:"report"`
}

// NATSReportPublisher publishes page reports to a NATS subject.
type NATSReportPublisher struct {
	config config.NATSConfig
	conn   natsConn
	logger logging.ApplicationLogger

	mutex          sync.RWMutex
	connectedAt    time.Time
	reconnectCount int
	lastError      error
	messageMetrics MessageMetrics

	// Circuit breaker state
	circuitBreakerOpen bool
	lastFailureTime    time.Time
	failureCount       int
}

// NewNATSReportPublisher creates a publisher for cfg. Call Connect before publishing.
func NewNATSReportPublisher(cfg config.NATSConfig) (*NATSReportPublisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &NATSReportPublisher{config: cfg, logger: slogger.WithComponent("nats-report-publisher")}, nil
}

// Connect establishes the connection to the NATS server.
func (n *NATSReportPublisher) Connect() error {
	timeout := n.config.Timeout
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}

	opts := []nats.Option{
		nats.Name("pagestatic"),
		nats.MaxReconnects(n.config.MaxReconnects),
		nats.ReconnectWait(n.config.ReconnectWait),
		nats.Timeout(timeout),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			n.mutex.Lock()
			n.reconnectCount++
			n.mutex.Unlock()
			n.logger.Info(context.Background(), "Reconnected to NATS", slogger.Fields{"url": conn.ConnectedUrl()})
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			n.recordError(errors.New("connection lost"))
			fields := slogger.Fields{"url": n.config.URL}
			if err != nil {
				fields["error"] = err.Error()
			}
			n.logger.Warn(context.Background(), "Disconnected from NATS", fields)
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.recordError(err)
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.attach(conn)
	return nil
}

// attach installs an established connection.
func (n *NATSReportPublisher) attach(conn natsConn) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.conn = conn
	n.connectedAt = time.Now()
}

// Disconnect flushes pending messages and closes the connection.
func (n *NATSReportPublisher) Disconnect(ctx context.Context) error {
	n.mutex.Lock()
	conn := n.conn
	n.conn = nil
	n.mutex.Unlock()

	if conn == nil {
		return nil
	}

	var flushErr error
	if conn.IsConnected() {
		if err := conn.FlushWithContext(ctx); err != nil {
			flushErr = fmt.Errorf("failed to flush NATS connection: %w", err)
		}
	}
	conn.Close()
	return flushErr
}

// PublishPageReport implements outbound.ReportPublisher.
func (n *NATSReportPublisher) PublishPageReport(ctx context.Context, report *entity.PageReport) error {
	start := time.Now()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if report == nil {
		return fmt.Errorf("%w: page report cannot be nil", domain.ErrInvalidInput)
	}

	if n.isCircuitBreakerOpen() {
		return fmt.Errorf("%w: circuit breaker open: too many recent failures", domain.ErrPublishFailed)
	}

	n.mutex.RLock()
	conn := n.conn
	n.mutex.RUnlock()

	if conn == nil || !conn.IsConnected() {
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("%w: not connected to NATS", domain.ErrPublishFailed)
	}

	data, err := json.Marshal(PageReportMessage{
		MessageID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Report:    report,
	})
	if err != nil {
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.Publish(n.config.Subject, data); err != nil {
		n.updateMetrics(false, time.Since(start))
		n.recordError(err)
		return fmt.Errorf("%w: %w", domain.ErrPublishFailed, err)
	}

	n.updateMetrics(true, time.Since(start))
	n.logger.Debug(ctx, "Published page report", slogger.Fields{
		"subject": n.config.Subject,
		"path":    report.Path,
		"bytes":   len(data),
	})
	return nil
}

// GetConnectionHealth returns the current connection health status.
func (n *NATSReportPublisher) GetConnectionHealth() ConnectionHealthStatus {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	status := ConnectionHealthStatus{
		Connected:      n.conn != nil && n.conn.IsConnected(),
		Reconnects:     n.reconnectCount,
		CircuitBreaker: "closed",
	}
	if status.Connected {
		status.Uptime = time.Since(n.connectedAt)
	}
	if n.lastError != nil {
		status.LastError = n.lastError.Error()
	}
	if n.circuitBreakerOpen {
		status.CircuitBreaker = "open"
	}
	return status
}

// GetMessageMetrics returns current publishing metrics.
func (n *NATSReportPublisher) GetMessageMetrics() MessageMetrics {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.messageMetrics
}

// ResetCircuitBreaker closes the circuit breaker.
func (n *NATSReportPublisher) ResetCircuitBreaker() {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.circuitBreakerOpen = false
	n.failureCount = 0
	n.lastFailureTime = time.Time{}
}

func (n *NATSReportPublisher) recordError(err error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.lastError = err
}

// updateMetrics updates publishing metrics and the circuit breaker.
func (n *NATSReportPublisher) updateMetrics(success bool, latency time.Duration) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if success {
		n.messageMetrics.PublishedCount++
		n.messageMetrics.LastPublishedTime = time.Now()

		// EMA with alpha = 0.1
		if n.messageMetrics.AverageLatency == 0 {
			n.messageMetrics.AverageLatency = latency
		} else {
			n.messageMetrics.AverageLatency = time.Duration(
				0.9*float64(n.messageMetrics.AverageLatency) + 0.1*float64(latency),
			)
		}
	} else {
		n.messageMetrics.FailedCount++
	}
	n.updateCircuitBreaker(success)
}

// updateCircuitBreaker must be called with the mutex held.
func (n *NATSReportPublisher) updateCircuitBreaker(success bool) {
	if success {
		n.failureCount = 0
		n.circuitBreakerOpen = false
		return
	}

	n.failureCount++
	n.lastFailureTime = time.Now()
	if n.failureCount >= circuitMaxFailures {
		n.circuitBreakerOpen = true
	}
}

// isCircuitBreakerOpen reports whether publishing is suspended. An open
// breaker half-opens once circuitOpenDuration has passed since the last failure.
func (n *NATSReportPublisher) isCircuitBreakerOpen() bool {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.circuitBreakerOpen && time.Since(n.lastFailureTime) > circuitOpenDuration {
		n.circuitBreakerOpen = false
		n.failureCount = circuitMaxFailures - 1
	}
	return n.circuitBreakerOpen
}
