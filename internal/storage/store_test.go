package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "flightlog.sqlite"))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, "D4:D4:DA:AA:27:5C", map[string]any{"cadenceMS": 100})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id <= 0 {
		t.Fatalf("session ID = %d, want > 0", id)
	}

	session, err := s.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if session == nil {
		t.Fatal("Session returned nil for existing session")
	}
	if session.Peer != "D4:D4:DA:AA:27:5C" {
		t.Errorf("Peer = %q", session.Peer)
	}
	if session.Config == nil || *session.Config != `{"cadenceMS":100}` {
		t.Errorf("Config = %v, want cadence JSON", session.Config)
	}

	missing, err := s.Session(ctx, id+100)
	if err != nil {
		t.Fatalf("Session(missing): %v", err)
	}
	if missing != nil {
		t.Error("Session(missing) != nil")
	}
}

func TestStore_RecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sessionID, err := s.CreateSession(ctx, "AA:BB:CC:DD:EE:FF", nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	records := []telemetry.Record{
		{TimeMS: 100, AltitudeFt: 0, TemperatureC: 18.5, BatteryVoltageV: 4.1},
		{TimeMS: 200, AltitudeFt: 52.5, TemperatureC: 18.4, BatteryVoltageV: 4.1},
		{TimeMS: 300, AltitudeFt: 148.75, TemperatureC: 18.2, BatteryVoltageV: 4.0},
	}
	now := time.Now()
	for _, r := range records {
		if err = s.InsertRecord(ctx, sessionID, now, r, false); err != nil {
			t.Fatalf("InsertRecord(%d): %v", r.TimeMS, err)
		}
	}

	it, err := s.ReadRecords(ctx, sessionID)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	defer it.Close()

	var got []telemetry.Record
	for it.Next() {
		got = append(got, it.Current().Record)
	}
	if err = it.Err(); err != nil {
		t.Fatalf("iterating: %v", err)
	}

	if len(got) != len(records) {
		t.Fatalf("read %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestStore_RetransmitsSortIntoFlightOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sessionID, err := s.CreateSession(ctx, "AA:BB:CC:DD:EE:FF", nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	now := time.Now()
	// TimeMS 200 was lost live and arrived later via re_tx.
	s.InsertRecord(ctx, sessionID, now, telemetry.Record{TimeMS: 100}, false)
	s.InsertRecord(ctx, sessionID, now, telemetry.Record{TimeMS: 300}, false)
	s.InsertRecord(ctx, sessionID, now.Add(time.Second), telemetry.Record{TimeMS: 200}, true)

	it, err := s.ReadRecords(ctx, sessionID)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	defer it.Close()

	var times []uint32
	var retx []bool
	for it.Next() {
		times = append(times, it.Current().Record.TimeMS)
		retx = append(retx, it.Current().Retransmitted)
	}
	if err = it.Err(); err != nil {
		t.Fatalf("iterating: %v", err)
	}

	want := []uint32{100, 200, 300}
	for i := range want {
		if times[i] != want[i] {
			t.Fatalf("record order = %v, want %v", times, want)
		}
	}
	if !retx[1] {
		t.Error("recovered record not flagged as retransmitted")
	}
}
