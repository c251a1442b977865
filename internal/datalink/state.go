// Package datalink coordinates the flight computer's sampling, command and
// radio loops around a single shared streaming session.
package datalink

import (
	"sync"

	"github.com/roman-kulish/rocket-telemetry/internal/link"
)

// State is the streaming session shared by the sampling and command loops:
// which ground station is subscribed, and whether telemetry is flowing.
// Guarded by one mutex; never held across I/O.
type State struct {
	mu         sync.Mutex
	activePeer link.PeerAddr
	hasPeer    bool
	streaming  bool
}

// NewState starts in the idle state: no peer, not streaming.
func NewState() *State { return &State{} }

// Activate subscribes the peer and enables streaming.
func (s *State) Activate(peer link.PeerAddr) {
	s.mu.Lock()
	s.activePeer = peer
	s.hasPeer = true
	s.streaming = true
	s.mu.Unlock()
}

// StopStreaming disables streaming but keeps the peer subscribed, so a
// retransmission request can still be served.
func (s *State) StopStreaming() {
	s.mu.Lock()
	s.streaming = false
	s.mu.Unlock()
}

// ClearPeer drops the subscription entirely. Used when a send fails: the
// peer is unreachable and must re-subscribe.
func (s *State) ClearPeer() {
	s.mu.Lock()
	s.hasPeer = false
	s.streaming = false
	s.mu.Unlock()
}

// Peer returns the subscribed peer, if any.
func (s *State) Peer() (link.PeerAddr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePeer, s.hasPeer
}

// Streaming reports the active peer and whether telemetry should be
// emitted this cycle.
func (s *State) Streaming() (link.PeerAddr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streaming || !s.hasPeer {
		return link.PeerAddr{}, false
	}
	return s.activePeer, true
}
