package infra

import (
	"sync/atomic"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ticksApplied   atomic.Uint64
	tradesExecuted atomic.Uint64
	snapshotsTaken atomic.Uint64
	errorsTotal    atomic.Uint64

	// Gauges
	streamClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTick records one applied price tick.
func (m *Metrics) RecordTick() {
	m.ticksApplied.Add(1)
}

// RecordTrade records one executed buy or sell.
func (m *Metrics) RecordTrade() {
	m.tradesExecuted.Add(1)
}

// RecordSnapshot records one portfolio valuation snapshot.
func (m *Metrics) RecordSnapshot() {
	m.snapshotsTaken.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementStreamClients increments connected stream observers by 1.
func (m *Metrics) IncrementStreamClients() {
	m.streamClients.Add(1)
}

// DecrementStreamClients decrements connected stream observers by 1.
func (m *Metrics) DecrementStreamClients() {
	m.streamClients.Add(-1)
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	TicksApplied   uint64
	TradesExecuted uint64
	SnapshotsTaken uint64
	ErrorsTotal    uint64
	StreamClients  int32
}

// Snapshot returns a copy of the current counters for reporting.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TicksApplied:   m.ticksApplied.Load(),
		TradesExecuted: m.tradesExecuted.Load(),
		SnapshotsTaken: m.snapshotsTaken.Load(),
		ErrorsTotal:    m.errorsTotal.Load(),
		StreamClients:  m.streamClients.Load(),
	}
}
