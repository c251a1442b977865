package link

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
)

const (
	// maxFrameSize bounds a single radio frame: header plus payload.
	maxFrameSize = 512

	inboundQueueLen = 16
)

// WithUDPLogger sets the logger for the transport.
func WithUDPLogger(logger *slog.Logger) func(*UDPTransport) {
	return func(t *UDPTransport) {
		t.logger = logger.With(slog.String("localPeer", t.local.String()))
	}
}

// UDPTransport carries link frames over UDP, standing in for the
// point-to-point radio. Each frame is the 6-byte sender address followed by
// the payload. Senders are registered automatically when their first frame
// arrives, so replying to the frame's peer address always works; peers that
// must be reachable before they ever transmit are registered explicitly.
type UDPTransport struct {
	local  PeerAddr
	conn   *net.UDPConn
	logger *slog.Logger

	mu    sync.Mutex
	peers map[PeerAddr]*net.UDPAddr

	inbound chan Message

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// NewUDPTransport binds a UDP socket on listenAddr and starts the receive
// loop. local is this node's link-layer address, stamped on every outgoing
// frame.
func NewUDPTransport(local PeerAddr, listenAddr string, options ...func(*UDPTransport)) (*UDPTransport, error) {
	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving listen address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", listenAddr, err)
	}

	t := &UDPTransport{
		local:   local,
		conn:    conn,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		peers:   make(map[PeerAddr]*net.UDPAddr),
		inbound: make(chan Message, inboundQueueLen),
		done:    make(chan struct{}),
	}

	for _, option := range options {
		option(t)
	}

	go t.readLoop()
	return t, nil
}

// LocalAddr returns the bound UDP address, useful when listening on an
// ephemeral port.
func (t *UDPTransport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// Inbound returns the received message channel.
func (t *UDPTransport) Inbound() <-chan Message { return t.inbound }

// RegisterPeer maps a peer address to a UDP endpoint.
func (t *UDPTransport) RegisterPeer(peer PeerAddr, endpoint string) error {
	addr, err := net.ResolveUDPAddr("udp", endpoint)
	if err != nil {
		return fmt.Errorf("resolving peer endpoint: %w", err)
	}

	t.mu.Lock()
	t.peers[peer] = addr
	t.mu.Unlock()
	return nil
}

// PeerExists reports whether the peer has a known endpoint.
func (t *UDPTransport) PeerExists(peer PeerAddr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.peers[peer]
	return ok
}

// Send transmits one frame to the peer. Best effort: an error means the
// local write failed or the peer is unknown, never that the remote end did
// not receive the frame.
func (t *UDPTransport) Send(peer PeerAddr, payload []byte) error {
	t.mu.Lock()
	addr, ok := t.peers[peer]
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}

	frame := make([]byte, 0, PeerAddrSize+len(payload))
	frame = append(frame, t.local[:]...)
	frame = append(frame, payload...)

	if _, err := t.conn.WriteToUDP(frame, addr); err != nil {
		return fmt.Errorf("sending to %s: %w", peer, err)
	}
	return nil
}

// Close shuts down the socket and closes the inbound channel.
func (t *UDPTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *UDPTransport) readLoop() {
	defer close(t.inbound)

	buf := make([]byte, maxFrameSize)
	for {
		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn("read failed", slog.String("error", err.Error()))
			continue
		}

		if n < PeerAddrSize {
			t.logger.Warn("runt frame dropped", slog.Int("bytes", n))
			continue
		}

		var peer PeerAddr
		copy(peer[:], buf[:PeerAddrSize])

		// Remember the sender's endpoint so replies reach it.
		t.mu.Lock()
		t.peers[peer] = from
		t.mu.Unlock()

		payload := make([]byte, n-PeerAddrSize)
		copy(payload, buf[PeerAddrSize:n])

		select {
		case t.inbound <- Message{Peer: peer, Payload: payload}:
		case <-t.done:
			return
		}
	}
}
