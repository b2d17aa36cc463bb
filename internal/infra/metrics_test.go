package infra

import (
	"testing"
)

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}

	m.RecordTick()
	m.RecordTick()
	m.RecordTick()
	m.RecordTrade()
	m.RecordSnapshot()
	m.RecordError()

	snap := m.Snapshot()
	if snap.TicksApplied != 3 {
		t.Errorf("Expected 3 ticks, got %d", snap.TicksApplied)
	}
	if snap.TradesExecuted != 1 {
		t.Errorf("Expected 1 trade, got %d", snap.TradesExecuted)
	}
	if snap.SnapshotsTaken != 1 {
		t.Errorf("Expected 1 snapshot, got %d", snap.SnapshotsTaken)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("Expected 1 error, got %d", snap.ErrorsTotal)
	}
}

func TestMetrics_StreamClients(t *testing.T) {
	m := &Metrics{}

	m.IncrementStreamClients()
	m.IncrementStreamClients()
	m.IncrementStreamClients()

	snap := m.Snapshot()
	if snap.StreamClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.StreamClients)
	}

	m.DecrementStreamClients()
	snap = m.Snapshot()
	if snap.StreamClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.StreamClients)
	}
}
