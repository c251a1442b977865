// Package groundstation implements the receiving side of the datalink:
// decoding the telemetry stream, tracking the session, and recovering
// lost records through indexed retransmission requests.
package groundstation

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/link"
	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

// Flight-side recording indices advance once per sampling cycle, so a
// TimeMS jump reveals how many records a dropout swallowed.
const gapThresholdFactor = 1.5

// DefaultMaxRequestsPerGap bounds how many re_tx requests one dropout may
// trigger; a long radio shadow should not flood the uplink.
const DefaultMaxRequestsPerGap = 16

// CommandSender pushes a command line to the flight computer.
type CommandSender interface {
	SendCommand(peer link.PeerAddr, command string) error
}

// Handler consumes each decoded record. retransmitted marks records that
// arrived out of order, i.e. recovered via re_tx.
type Handler func(peer link.PeerAddr, r telemetry.Record, retransmitted bool)

// SessionStats summarizes the current receiving session.
type SessionStats struct {
	Received    int    // Records that arrived in order
	Recovered   int    // Records recovered via retransmission
	Requested   int    // re_tx requests issued
	FirstTimeMS uint32 // TimeMS of the first record
	LastTimeMS  uint32 // TimeMS of the newest in-order record
}

// WithReceiverLogger sets the logger.
func WithReceiverLogger(logger *slog.Logger) func(*Receiver) {
	return func(r *Receiver) {
		r.logger = logger
	}
}

// WithMaxRequestsPerGap overrides the per-gap request bound.
func WithMaxRequestsPerGap(n int) func(*Receiver) {
	return func(r *Receiver) {
		r.maxRequestsPerGap = n
	}
}

// Receiver decodes inbound telemetry and reconstructs a contiguous record
// history. When the gap between consecutive TimeMS stamps exceeds the
// nominal cadence it infers the dropped indices and asks the flight
// computer to resend them.
type Receiver struct {
	logger   *slog.Logger
	commands CommandSender

	cadence           time.Duration
	maxRequestsPerGap int

	mu        sync.Mutex
	active    bool
	peer      link.PeerAddr
	nextIndex int // Flight-side recording index of the next live record
	stats     SessionStats
	handlers  []Handler
}

// NewReceiver creates a receiver for streams sampled at the given cadence.
func NewReceiver(commands CommandSender, cadence time.Duration, options ...func(*Receiver)) *Receiver {
	r := &Receiver{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		commands:          commands,
		cadence:           cadence,
		maxRequestsPerGap: DefaultMaxRequestsPerGap,
	}

	for _, option := range options {
		option(r)
	}
	return r
}

// OnRecord registers a handler invoked for every decoded record.
// Handlers run on the receiver's goroutine; keep them fast.
func (r *Receiver) OnRecord(h Handler) {
	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	r.mu.Unlock()
}

// StartSession resets tracking for a fresh stream. Called alongside
// sending "ton": the flight computer clears its buffer, so indices start
// over at zero.
func (r *Receiver) StartSession(peer link.PeerAddr) {
	r.mu.Lock()
	r.active = true
	r.peer = peer
	r.nextIndex = 0
	r.stats = SessionStats{}
	r.mu.Unlock()

	r.logger.Info("session started", slog.String("peer", peer.String()))
}

// Stats returns a snapshot of the session counters.
func (r *Receiver) Stats() SessionStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// HandleMessage decodes one inbound datagram. Undecodable payloads are
// logged and dropped; the receiver never fails its loop.
func (r *Receiver) HandleMessage(msg link.Message) {
	record, err := telemetry.Decode(msg.Payload)
	if err != nil {
		r.logger.Warn("dropping undecodable payload",
			slog.String("peer", msg.Peer.String()),
			slog.String("error", err.Error()))
		return
	}

	r.mu.Lock()

	if !r.active {
		// Telemetry before any session: track it, starting indices here.
		r.active = true
		r.peer = msg.Peer
		r.nextIndex = 0
		r.stats = SessionStats{}
	}

	retransmitted := r.stats.Received > 0 && record.TimeMS <= r.stats.LastTimeMS
	var requests []string

	if retransmitted {
		r.stats.Recovered++
	} else {
		if r.stats.Received == 0 {
			r.stats.FirstTimeMS = record.TimeMS
		} else if missing := r.missingSince(record.TimeMS); missing > 0 {
			requests = r.gapRequests(missing)
		}
		r.stats.LastTimeMS = record.TimeMS
		r.stats.Received++
		r.nextIndex++
	}

	handlers := append([]Handler(nil), r.handlers...)
	peer := r.peer
	r.mu.Unlock()

	for _, h := range handlers {
		h(peer, record, retransmitted)
	}

	for _, cmd := range requests {
		if err := r.commands.SendCommand(peer, cmd); err != nil {
			r.logger.Warn("retransmission request failed",
				slog.String("command", cmd),
				slog.String("error", err.Error()))
		}
	}
}

// missingSince infers how many records fell into the silence before a
// record stamped timeMS. Lost records still consumed flight-side indices:
// they were pushed to the recording buffer before their send was lost.
func (r *Receiver) missingSince(timeMS uint32) int {
	cadenceMS := float64(r.cadence.Milliseconds())
	delta := float64(timeMS - r.stats.LastTimeMS)

	if delta < cadenceMS*gapThresholdFactor {
		return 0
	}
	return int(delta/cadenceMS+0.5) - 1
}

// gapRequests advances the index tracker past a gap of n lost records and
// returns the re_tx commands for them, bounded per gap. Caller holds mu.
func (r *Receiver) gapRequests(n int) []string {
	first := r.nextIndex
	r.nextIndex += n

	limit := n
	if limit > r.maxRequestsPerGap {
		limit = r.maxRequestsPerGap
	}

	r.logger.Info("gap detected",
		slog.Int("missing", n),
		slog.Int("firstIndex", first),
		slog.Int("requested", limit))

	requests := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		requests = append(requests, fmt.Sprintf("re_tx %d", first+i))
	}
	r.stats.Requested += limit
	return requests
}
