package recording

import (
	"testing"

	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

func TestBuffer_PushAndGet(t *testing.T) {
	b := NewBuffer(10)

	for i := 0; i < 5; i++ {
		r := telemetry.Record{TimeMS: uint32(i * 100)}
		if !b.TryPush(r) {
			t.Fatalf("TryPush(%d) = false, want true", i)
		}
	}

	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}

	for i := 0; i < 5; i++ {
		r, ok := b.Get(i)
		if !ok {
			t.Fatalf("Get(%d) not found", i)
		}
		if r.TimeMS != uint32(i*100) {
			t.Errorf("Get(%d).TimeMS = %d, want %d", i, r.TimeMS, i*100)
		}
	}
}

func TestBuffer_DropsBeyondCapacity(t *testing.T) {
	const capacity = 8
	const extra = 3

	b := NewBuffer(capacity)
	for i := 0; i < capacity+extra; i++ {
		pushed := b.TryPush(telemetry.Record{TimeMS: uint32(i)})
		if want := i < capacity; pushed != want {
			t.Errorf("TryPush(%d) = %v, want %v", i, pushed, want)
		}
	}

	if b.Len() != capacity {
		t.Errorf("Len() = %d, want %d", b.Len(), capacity)
	}

	// Overflow pushes are dropped, not wrapped: nothing lives past the cap.
	for i := capacity; i < capacity+extra; i++ {
		if _, ok := b.Get(i); ok {
			t.Errorf("Get(%d) found a record, want none", i)
		}
	}

	// The first record is still the first record.
	r, ok := b.Get(0)
	if !ok || r.TimeMS != 0 {
		t.Errorf("Get(0) = %+v, %v; want TimeMS 0", r, ok)
	}
}

func TestBuffer_GetOutOfRange(t *testing.T) {
	b := NewBuffer(4)
	b.TryPush(telemetry.Record{})

	for _, i := range []int{-1, 1, 100} {
		if _, ok := b.Get(i); ok {
			t.Errorf("Get(%d) = ok, want not found", i)
		}
	}
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(4)
	for i := 0; i < 4; i++ {
		b.TryPush(telemetry.Record{TimeMS: uint32(i)})
	}

	b.Clear()

	if b.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", b.Len())
	}
	if _, ok := b.Get(0); ok {
		t.Error("Get(0) after Clear = ok, want not found")
	}

	// Cleared buffer accepts a fresh session up to capacity again.
	for i := 0; i < 4; i++ {
		if !b.TryPush(telemetry.Record{}) {
			t.Fatalf("TryPush(%d) after Clear = false, want true", i)
		}
	}
}

func TestNewBuffer_DefaultCapacity(t *testing.T) {
	if got := NewBuffer(0).Cap(); got != DefaultCapacity {
		t.Errorf("NewBuffer(0).Cap() = %d, want %d", got, DefaultCapacity)
	}
}
