package datalink

import (
	"errors"
	"sync"
	"testing"

	"github.com/roman-kulish/rocket-telemetry/internal/estimator"
	"github.com/roman-kulish/rocket-telemetry/internal/link"
	"github.com/roman-kulish/rocket-telemetry/internal/recording"
	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

type fakeTransport struct {
	mu       sync.Mutex
	inbound  chan link.Message
	sent     []link.Message
	failSend bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan link.Message, 16)}
}

func (f *fakeTransport) Inbound() <-chan link.Message { return f.inbound }

func (f *fakeTransport) Send(peer link.PeerAddr, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSend {
		return errors.New("peer unreachable")
	}
	cp := append([]byte(nil), payload...)
	f.sent = append(f.sent, link.Message{Peer: peer, Payload: cp})
	return nil
}

func (f *fakeTransport) PeerExists(link.PeerAddr) bool { return true }
func (f *fakeTransport) Close() error                  { return nil }

func (f *fakeTransport) sentMessages() []link.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]link.Message(nil), f.sent...)
}

func (f *fakeTransport) setFailSend(fail bool) {
	f.mu.Lock()
	f.failSend = fail
	f.mu.Unlock()
}

type countingBuzzer struct{ beeps int }

func (b *countingBuzzer) Beep() { b.beeps++ }

func newTestInterpreter(tr link.Transport) (*Interpreter, *State, *recording.Buffer, *estimator.Altimeter, *countingBuzzer) {
	state := NewState()
	recorder := recording.NewBuffer(8)
	altimeter := estimator.NewAltimeter()
	buzzer := &countingBuzzer{}
	in := NewInterpreter(state, recorder, altimeter, tr, buzzer, nil)
	return in, state, recorder, altimeter, buzzer
}

var ground = link.PeerAddr{0xD4, 0xD4, 0xDA, 0xAA, 0x27, 0x5C}

func TestInterpreter_Ton(t *testing.T) {
	tr := newFakeTransport()
	in, state, recorder, _, _ := newTestInterpreter(tr)

	// Stale records from a previous session must not survive a new "ton".
	recorder.TryPush(telemetry.Record{TimeMS: 1})

	in.Handle(ground, []byte("ton"))

	peer, streaming := state.Streaming()
	if !streaming {
		t.Fatal("not streaming after ton")
	}
	if peer != ground {
		t.Errorf("active peer = %s, want sender %s", peer, ground)
	}
	if recorder.Len() != 0 {
		t.Errorf("recorder not cleared: len = %d", recorder.Len())
	}
}

func TestInterpreter_ToneBeforeTon(t *testing.T) {
	tr := newFakeTransport()
	in, state, _, _, buzzer := newTestInterpreter(tr)

	// "tone" shares the "ton" prefix; it must only fire the buzzer.
	in.Handle(ground, []byte("tone"))

	if buzzer.beeps != 1 {
		t.Errorf("beeps = %d, want 1", buzzer.beeps)
	}
	if _, streaming := state.Streaming(); streaming {
		t.Error("tone must not start streaming")
	}
}

func TestInterpreter_Toff(t *testing.T) {
	tr := newFakeTransport()
	in, state, _, _, _ := newTestInterpreter(tr)

	in.Handle(ground, []byte("ton"))
	in.Handle(ground, []byte("toff"))

	if _, streaming := state.Streaming(); streaming {
		t.Fatal("still streaming after toff")
	}
	// Peer is retained but inactive.
	if peer, ok := state.Peer(); !ok || peer != ground {
		t.Errorf("peer after toff = %v, %v; want retained %s", peer, ok, ground)
	}
}

func TestInterpreter_Retx(t *testing.T) {
	tr := newFakeTransport()
	in, _, recorder, _, _ := newTestInterpreter(tr)

	want := telemetry.Record{TimeMS: 1200, AltitudeFt: 250.5, TemperatureC: 17, BatteryVoltageV: 3.9}

	in.Handle(ground, []byte("ton"))
	recorder.TryPush(telemetry.Record{TimeMS: 1100})
	recorder.TryPush(want)

	in.Handle(ground, []byte("re_tx 1"))

	sent := tr.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].Peer != ground {
		t.Errorf("retransmit peer = %s, want %s", sent[0].Peer, ground)
	}

	got, err := telemetry.Decode(sent[0].Payload)
	if err != nil {
		t.Fatalf("decoding retransmit payload: %v", err)
	}
	if got != want {
		t.Errorf("retransmit payload = %+v, want %+v", got, want)
	}
}

func TestInterpreter_RetxWhileNotStreaming(t *testing.T) {
	tr := newFakeTransport()
	in, _, recorder, _, _ := newTestInterpreter(tr)

	in.Handle(ground, []byte("ton"))
	recorder.TryPush(telemetry.Record{TimeMS: 42})
	in.Handle(ground, []byte("toff"))

	// Peer is retained after toff, so retransmission still works.
	in.Handle(ground, []byte("re_tx 0"))

	if len(tr.sentMessages()) != 1 {
		t.Fatalf("sent %d messages, want 1", len(tr.sentMessages()))
	}
}

func TestInterpreter_RetxMissing(t *testing.T) {
	tr := newFakeTransport()
	in, _, _, _, _ := newTestInterpreter(tr)

	in.Handle(ground, []byte("ton"))
	in.Handle(ground, []byte("re_tx 5"))

	if len(tr.sentMessages()) != 0 {
		t.Error("re_tx of a missing index must not send")
	}
}

func TestInterpreter_Inhg(t *testing.T) {
	tr := newFakeTransport()
	in, _, _, altimeter, _ := newTestInterpreter(tr)

	in.Handle(ground, []byte("inhg 100000"))

	if got := altimeter.ReferencePressure(); got != 100000 {
		t.Errorf("reference pressure = %v, want 100000", got)
	}
}

func TestInterpreter_Reset(t *testing.T) {
	tr := newFakeTransport()
	in, _, _, altimeter, _ := newTestInterpreter(tr)

	altimeter.Update(99000, 20)
	in.Handle(ground, []byte("reset"))

	s := altimeter.Stats()
	if s.MaximumPressure > s.MinimumPressure {
		t.Error("extrema not back to sentinel state after reset")
	}
}

func TestInterpreter_MalformedInput(t *testing.T) {
	tr := newFakeTransport()
	in, state, _, altimeter, _ := newTestInterpreter(tr)

	inputs := [][]byte{
		{0xFF, 0xFE, 0xFD},          // invalid UTF-8
		[]byte("re_tx"),             // missing index
		[]byte("re_tx banana"),      // bad index
		[]byte("re_tx -3"),          // negative index
		[]byte("inhg"),              // missing pressure
		[]byte("inhg not-a-number"), // bad pressure
		[]byte("warp 9"),            // unknown command
		[]byte(""),
	}

	for _, payload := range inputs {
		in.Handle(ground, payload) // must not panic
	}

	if _, streaming := state.Streaming(); streaming {
		t.Error("malformed input started streaming")
	}
	if len(tr.sentMessages()) != 0 {
		t.Error("malformed input caused a send")
	}
	if got := altimeter.ReferencePressure(); got != estimator.DefaultReferencePressure {
		t.Errorf("reference pressure changed to %v", got)
	}
}

func TestInterpreter_RetxSendFailureClearsPeer(t *testing.T) {
	tr := newFakeTransport()
	in, state, recorder, _, _ := newTestInterpreter(tr)

	in.Handle(ground, []byte("ton"))
	recorder.TryPush(telemetry.Record{})
	tr.setFailSend(true)

	in.Handle(ground, []byte("re_tx 0"))

	if _, ok := state.Peer(); ok {
		t.Error("peer still set after failed retransmit")
	}
}
