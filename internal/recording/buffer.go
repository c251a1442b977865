// Package recording holds the bounded in-memory store of emitted telemetry
// records. Records are indexed by emission order; the index doubles as the
// sequence number the ground station uses to request retransmission.
package recording

import (
	"sync"

	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

// DefaultCapacity bounds a recording session to roughly 90 seconds of
// telemetry at the 100ms sampling cadence.
const DefaultCapacity = 900

// Buffer is a thread-safe, append-only store of telemetry records with a
// fixed capacity. Once full, further records are dropped rather than
// overwritten, so indices of stored records never shift mid-session.
type Buffer struct {
	mu       sync.Mutex
	records  []telemetry.Record
	capacity int
}

// NewBuffer creates a buffer with the given capacity. A capacity of zero
// or less falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		records:  make([]telemetry.Record, 0, capacity),
		capacity: capacity,
	}
}

// TryPush appends the record if there is room and reports whether the
// append occurred. The caller transmits only what was recorded, keeping
// retransmission indices consistent with the sent stream.
func (b *Buffer) TryPush(r telemetry.Record) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) >= b.capacity {
		return false
	}
	b.records = append(b.records, r)
	return true
}

// Get returns the record at the given emission index, if present.
func (b *Buffer) Get(index int) (telemetry.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.records) {
		return telemetry.Record{}, false
	}
	return b.records[index], true
}

// Len returns the number of stored records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Clear empties the buffer. Invoked when streaming is (re)started so every
// session gets a fresh, dense index space.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = b.records[:0]
}
