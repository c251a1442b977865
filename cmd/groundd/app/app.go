package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/groundstation"
	"github.com/roman-kulish/rocket-telemetry/internal/link"
	"github.com/roman-kulish/rocket-telemetry/internal/mqtt"
	"github.com/roman-kulish/rocket-telemetry/internal/storage"
	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

const storageDir = "data"

// station holds the wired-up ground side for one run.
type station struct {
	logger    *slog.Logger
	transport *link.UDPTransport
	receiver  *groundstation.Receiver
	store     *storage.Store
	publisher *mqtt.Publisher

	flightPeer link.PeerAddr
	cadence    time.Duration

	// Current flight-log session; zero until the first "ton". Written by
	// the console loop, read by the receive loop.
	sessionID atomic.Int64
}

// SendCommand transmits one command line to the given peer.
func (s *station) SendCommand(peer link.PeerAddr, command string) error {
	return s.transport.Send(peer, []byte(command))
}

// Run wires the ground station and blocks until the context is cancelled.
// Commands are read from stdin and forwarded to the flight computer;
// telemetry flows into the flight log and, when configured, MQTT.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	local, err := link.ParsePeerAddr(config.Link.LocalPeer)
	if err != nil {
		return fmt.Errorf("parsing link.localPeer: %w", err)
	}
	flightPeer, err := link.ParsePeerAddr(config.Link.FlightPeer)
	if err != nil {
		return fmt.Errorf("parsing link.flightPeer: %w", err)
	}

	transport, err := link.NewUDPTransport(local, config.Link.Listen, link.WithUDPLogger(logger))
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}
	defer transport.Close()

	if err = transport.RegisterPeer(flightPeer, config.Link.FlightEndpoint); err != nil {
		return fmt.Errorf("registering flight computer: %w", err)
	}

	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("creating flight log: %w", err)
	}
	defer store.Close()

	s := &station{
		logger:     logger,
		transport:  transport,
		store:      store,
		flightPeer: flightPeer,
		cadence:    config.Receiver.Cadence(),
	}

	s.receiver = groundstation.NewReceiver(s, config.Receiver.Cadence(),
		groundstation.WithReceiverLogger(logger),
		groundstation.WithMaxRequestsPerGap(config.Receiver.MaxRequestsPerGap))

	if config.MQTT.Enabled() {
		if s.publisher, err = mqtt.NewPublisher(config.MQTT, mqtt.WithPublisherLogger(logger)); err != nil {
			return fmt.Errorf("creating mqtt publisher: %w", err)
		}
		defer s.publisher.Close()
	}

	s.receiver.OnRecord(s.handleRecord(ctx))

	go s.consoleLoop(ctx)

	logger.Info("ground station up",
		slog.String("localPeer", local.String()),
		slog.String("flightPeer", flightPeer.String()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-transport.Inbound():
			if !ok {
				return nil
			}
			s.receiver.HandleMessage(msg)
		}
	}
}

// handleRecord logs, stores and optionally publishes each decoded record.
func (s *station) handleRecord(ctx context.Context) groundstation.Handler {
	return func(peer link.PeerAddr, r telemetry.Record, retransmitted bool) {
		receivedAt := time.Now()

		s.logger.Info("telemetry",
			slog.Uint64("timeMs", uint64(r.TimeMS)),
			slog.Float64("altitudeFt", float64(r.AltitudeFt)),
			slog.Float64("temperatureC", float64(r.TemperatureC)),
			slog.Float64("batteryV", float64(r.BatteryVoltageV)),
			slog.Bool("retransmitted", retransmitted))

		if sessionID := s.sessionID.Load(); sessionID != 0 {
			if err := s.store.InsertRecord(ctx, sessionID, receivedAt, r, retransmitted); err != nil {
				s.logger.Error("storing record", slog.String("error", err.Error()))
			}
		}

		if s.publisher != nil {
			s.publisher.Publish(peer.String(), receivedAt, r, retransmitted)
		}
	}
}

// translateCommand maps console aliases onto the wire protocol. Raw
// protocol lines pass through unchanged.
func translateCommand(line string) string {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 2 && fields[0] == "stream" && fields[1] == "on":
		return "ton"
	case len(fields) == 2 && fields[0] == "stream" && fields[1] == "off":
		return "toff"
	case len(fields) == 2 && fields[0] == "psl":
		return "inhg " + fields[1]
	case len(fields) == 2 && fields[0] == "retx":
		return "re_tx " + fields[1]
	}
	return line
}

// consoleLoop forwards stdin command lines to the flight computer. "ton"
// additionally opens a fresh flight-log session, mirroring the index
// reset on the flight side.
func (s *station) consoleLoop(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := translateCommand(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}

		if line == "ton" {
			sessionID, err := s.store.CreateSession(ctx, s.flightPeer.String(), map[string]any{
				"cadenceMS": s.cadence.Milliseconds(),
			})
			if err != nil {
				s.logger.Error("creating session", slog.String("error", err.Error()))
				continue
			}
			s.sessionID.Store(sessionID)
			s.receiver.StartSession(s.flightPeer)
			s.logger.Info("recording session opened", slog.Int64("session", sessionID))
		}

		if err := s.SendCommand(s.flightPeer, line); err != nil {
			s.logger.Error("sending command",
				slog.String("command", line),
				slog.String("error", err.Error()))
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("console closed", slog.String("error", err.Error()))
	}
}

func createStorage(config *StorageConfig) (*storage.Store, error) {
	dir := config.DataDirectory
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		dir = filepath.Join(wd, storageDir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("flight_log_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewStore(dbPath), nil
}
