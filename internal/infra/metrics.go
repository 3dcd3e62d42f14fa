package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ticksApplied  atomic.Uint64
	ticksDropped  atomic.Uint64
	evaluations   atomic.Uint64
	crossings     atomic.Uint64
	notifications atomic.Uint64
	notifyErrors  atomic.Uint64
	sinkErrors    atomic.Uint64

	// Gauges
	feedConnected atomic.Int32 // 1 = connected, 0 = disconnected
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTickApplied records a tick successfully applied to the quote book.
func (m *Metrics) RecordTickApplied() {
	m.ticksApplied.Add(1)
}

// RecordTickDropped records a malformed or unrecognized feed message.
func (m *Metrics) RecordTickDropped() {
	m.ticksDropped.Add(1)
}

// RecordEvaluation records one full evaluate pass over the catalog.
func (m *Metrics) RecordEvaluation() {
	m.evaluations.Add(1)
}

// RecordCrossing records a qualifying event forwarded to the dispatcher.
func (m *Metrics) RecordCrossing() {
	m.crossings.Add(1)
}

// RecordNotification records an attempted outbound notification.
func (m *Metrics) RecordNotification() {
	m.notifications.Add(1)
}

// RecordNotifyError records a failed notification send.
func (m *Metrics) RecordNotifyError() {
	m.notifyErrors.Add(1)
}

// RecordSinkError records a failed durable-sink append.
func (m *Metrics) RecordSinkError() {
	m.sinkErrors.Add(1)
}

// SetFeedConnected sets the feed connection gauge.
func (m *Metrics) SetFeedConnected(connected bool) {
	if connected {
		m.feedConnected.Store(1)
	} else {
		m.feedConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TicksApplied  uint64
	TicksDropped  uint64
	Evaluations   uint64
	Crossings     uint64
	Notifications uint64
	NotifyErrors  uint64
	SinkErrors    uint64
	FeedConnected bool
	Timestamp     time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TicksApplied:  m.ticksApplied.Load(),
		TicksDropped:  m.ticksDropped.Load(),
		Evaluations:   m.evaluations.Load(),
		Crossings:     m.crossings.Load(),
		Notifications: m.notifications.Load(),
		NotifyErrors:  m.notifyErrors.Load(),
		SinkErrors:    m.sinkErrors.Load(),
		FeedConnected: m.feedConnected.Load() == 1,
		Timestamp:     time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticksApplied.Store(0)
	m.ticksDropped.Store(0)
	m.evaluations.Store(0)
	m.crossings.Store(0)
	m.notifications.Store(0)
	m.notifyErrors.Store(0)
	m.sinkErrors.Store(0)
	m.feedConnected.Store(0)
}
