package psu

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"
)

// Metrics tracks exchange statistics for one supply.
type Metrics struct {
	// Exchanges
	Exchanges   atomic.Int64 // Exchanges started on the wire
	Answered    atomic.Int64 // Exchanges terminated by the OK line
	NoResponses atomic.Int64 // Exchanges that timed out with no data
	Canceled    atomic.Int64 // Exchanges abandoned through the context

	// Error Categories
	FormatErrors    atomic.Int64 // Payloads that did not match their field layout
	EncodingErrors  atomic.Int64 // Values rejected before sending
	TransportErrors atomic.Int64 // Byte stream failures

	// Traffic
	BytesWritten atomic.Int64
	BytesRead    atomic.Int64

	// Latency
	TotalExchangeTime atomic.Int64 // Total time spent in exchanges (ns)
	MaxExchangeTime   atomic.Int64 // Slowest exchange (ns)
	LastExchangeTime  atomic.Int64 // Unix timestamp of last exchange

	// Health Indicators
	ConsecutiveFailures atomic.Int64 // No-response, format or transport failures in a row
	LastErrorTime       atomic.Int64 // Unix timestamp of last failure
}

// HealthStatus represents the overall health of the link to the supply
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDown      HealthStatus = "down"
)

// Snapshot is a point-in-time view of Metrics with derived rates.
type Snapshot struct {
	Timestamp time.Time
	Connected bool

	Exchanges       int64
	Answered        int64
	NoResponses     int64
	Canceled        int64
	FormatErrors    int64
	EncodingErrors  int64
	TransportErrors int64
	BytesWritten    int64
	BytesRead       int64

	AverageLatency time.Duration
	MaxLatency     time.Duration

	// NoResponseRate and ErrorRate are percentages of Exchanges.
	NoResponseRate float64
	ErrorRate      float64

	ConsecutiveFailures int64

	HealthStatus HealthStatus
	HealthScore  float64
}

type outcome int

const (
	outcomeAnswered outcome = iota
	outcomeNoResponse
	outcomeCanceled
	outcomeFormat
	outcomeTransport
)

func classify(resp Response, err error) outcome {
	switch {
	case err == nil && resp.Answered:
		return outcomeAnswered
	case err == nil:
		return outcomeNoResponse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	case IsFormatError(err):
		return outcomeFormat
	default:
		return outcomeTransport
	}
}

func (m *Metrics) recordExchange(o outcome, written, read int, duration time.Duration) {
	m.Exchanges.Inc()
	m.BytesWritten.Add(int64(written))
	m.BytesRead.Add(int64(read))
	m.LastExchangeTime.Store(time.Now().Unix())
	m.TotalExchangeTime.Add(duration.Nanoseconds())

	// Update max exchange time
	for {
		current := m.MaxExchangeTime.Load()
		if duration.Nanoseconds() <= current {
			break
		}
		if m.MaxExchangeTime.CompareAndSwap(current, duration.Nanoseconds()) {
			break
		}
	}

	switch o {
	case outcomeAnswered:
		m.Answered.Inc()
		m.ConsecutiveFailures.Store(0)
	case outcomeNoResponse:
		m.NoResponses.Inc()
		m.recordFailure()
	case outcomeCanceled:
		// Abandoning an exchange is the caller's choice, not a link fault.
		m.Canceled.Inc()
	case outcomeFormat:
		m.recordFormatError()
	case outcomeTransport:
		m.TransportErrors.Inc()
		m.recordFailure()
	}
}

func (m *Metrics) recordFormatError() {
	m.FormatErrors.Inc()
	m.recordFailure()
}

func (m *Metrics) recordEncodingError() {
	m.EncodingErrors.Inc()
	m.LastErrorTime.Store(time.Now().Unix())
}

func (m *Metrics) recordFailure() {
	m.ConsecutiveFailures.Inc()
	m.LastErrorTime.Store(time.Now().Unix())
}

// Snapshot computes derived values from the current counters. connected
// is false once the owning client is closed.
func (m *Metrics) Snapshot(connected bool) *Snapshot {
	s := &Snapshot{
		Timestamp:           time.Now(),
		Connected:           connected,
		Exchanges:           m.Exchanges.Load(),
		Answered:            m.Answered.Load(),
		NoResponses:         m.NoResponses.Load(),
		Canceled:            m.Canceled.Load(),
		FormatErrors:        m.FormatErrors.Load(),
		EncodingErrors:      m.EncodingErrors.Load(),
		TransportErrors:     m.TransportErrors.Load(),
		BytesWritten:        m.BytesWritten.Load(),
		BytesRead:           m.BytesRead.Load(),
		MaxLatency:          time.Duration(m.MaxExchangeTime.Load()),
		ConsecutiveFailures: m.ConsecutiveFailures.Load(),
	}

	if s.Exchanges > 0 {
		s.AverageLatency = time.Duration(m.TotalExchangeTime.Load() / s.Exchanges)
		s.NoResponseRate = float64(s.NoResponses) / float64(s.Exchanges) * 100
		s.ErrorRate = float64(s.FormatErrors+s.TransportErrors) / float64(s.Exchanges) * 100
	}

	s.HealthStatus = assessHealthStatus(s)
	s.HealthScore = calculateHealthScore(s)
	return s
}

func assessHealthStatus(s *Snapshot) HealthStatus {
	if !s.Connected {
		return HealthStatusDown
	}

	// Check for critical issues
	if s.ErrorRate > 50.0 || s.ConsecutiveFailures > 5 {
		return HealthStatusUnhealthy
	}

	// Check for degradation
	if s.ErrorRate > 10.0 || s.NoResponseRate > 20.0 || s.ConsecutiveFailures > 3 {
		return HealthStatusDegraded
	}

	return HealthStatusHealthy
}

func calculateHealthScore(s *Snapshot) float64 {
	if !s.Connected {
		return 0.0
	}

	score := 100.0
	score -= s.ErrorRate * 2
	score -= s.NoResponseRate
	// Consecutive failures weigh more than the long-run rates
	score -= float64(s.ConsecutiveFailures) * 10

	if score < 0 {
		score = 0
	}
	return score
}
