// Package link is the boundary to the wireless transport. The flight
// computer and the ground station exchange best-effort datagrams addressed
// by 6-byte link-layer peer identifiers; delivery guarantees live one layer
// up, in the application's retransmission protocol.
package link

import (
	"errors"
	"fmt"
	"strings"
)

// PeerAddrSize is the length of a link-layer peer identifier.
const PeerAddrSize = 6

// ErrUnknownPeer is returned when sending to a peer that has not been
// registered with the transport.
var ErrUnknownPeer = errors.New("unknown peer")

// PeerAddr is the 6-byte link-layer identifier of a peer.
type PeerAddr [PeerAddrSize]byte

// String formats the address MAC-style, e.g. "D4:D4:DA:AA:27:5C".
func (a PeerAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// ParsePeerAddr parses a MAC-style peer address.
func ParsePeerAddr(s string) (PeerAddr, error) {
	var a PeerAddr

	parts := strings.Split(s, ":")
	if len(parts) != PeerAddrSize {
		return a, fmt.Errorf("invalid peer address %q", s)
	}
	for i, p := range parts {
		var b byte
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return a, fmt.Errorf("invalid peer address %q: %w", s, err)
		}
		a[i] = b
	}
	return a, nil
}

// Message is a single datagram received from, or destined to, a peer.
type Message struct {
	Peer    PeerAddr
	Payload []byte
}

// Transport is a duplex best-effort datagram channel to remote peers.
// Send is synchronous and safe for concurrent use; callers must not hold
// application locks across it.
type Transport interface {
	// Inbound returns the channel of received messages. The channel is
	// closed when the transport shuts down.
	Inbound() <-chan Message

	// Send transmits a payload to a registered peer. It returns
	// ErrUnknownPeer when the peer has not been registered.
	Send(peer PeerAddr, payload []byte) error

	// PeerExists reports whether the peer is registered.
	PeerExists(peer PeerAddr) bool

	Close() error
}
