package datalink

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roman-kulish/rocket-telemetry/internal/estimator"
	"github.com/roman-kulish/rocket-telemetry/internal/link"
	"github.com/roman-kulish/rocket-telemetry/internal/recording"
)

// Buzzer fires the audible alert. The hardware driver lives outside the
// datalink core.
type Buzzer interface {
	Beep()
}

// NopBuzzer ignores alerts. Used when no buzzer is fitted.
type NopBuzzer struct{}

func (NopBuzzer) Beep() {}

// Interpreter dispatches inbound ground-station command lines. Commands
// are matched by prefix, so "tone" must be checked before "ton". A bad
// command never panics and never blocks the command loop; it is logged and
// dropped.
type Interpreter struct {
	logger    *slog.Logger
	state     *State
	recorder  *recording.Buffer
	altimeter *estimator.Altimeter
	transport link.Transport
	buzzer    Buzzer
}

// NewInterpreter wires the interpreter to the shared session state and its
// effect targets.
func NewInterpreter(state *State, recorder *recording.Buffer, altimeter *estimator.Altimeter, transport link.Transport, buzzer Buzzer, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if buzzer == nil {
		buzzer = NopBuzzer{}
	}
	return &Interpreter{
		logger:    logger,
		state:     state,
		recorder:  recorder,
		altimeter: altimeter,
		transport: transport,
		buzzer:    buzzer,
	}
}

// Handle processes one inbound command datagram from the given peer.
func (in *Interpreter) Handle(peer link.PeerAddr, payload []byte) {
	if !utf8.Valid(payload) {
		in.logger.Warn("unable to read command", slog.String("peer", peer.String()))
		return
	}

	cmd := strings.TrimSpace(string(payload))
	in.logger.Info("received command", slog.String("command", cmd), slog.String("peer", peer.String()))

	switch {
	case strings.HasPrefix(cmd, "tone"):
		in.buzzer.Beep()

	case strings.HasPrefix(cmd, "ton"):
		in.logger.Info("streaming telemetry", slog.String("peer", peer.String()))
		in.recorder.Clear()
		in.state.Activate(peer)

	case strings.HasPrefix(cmd, "toff"):
		in.logger.Info("disabling telemetry")
		in.state.StopStreaming()

	case strings.HasPrefix(cmd, "re_tx"):
		in.retransmit(cmd)

	case strings.HasPrefix(cmd, "inhg"):
		in.setReferencePressure(cmd)

	case strings.HasPrefix(cmd, "reset"):
		in.altimeter.Reset()

	default:
		in.logger.Warn("unknown command", slog.String("command", cmd))
	}
}

// retransmit serves "re_tx <index>": resend a recorded telemetry record to
// the subscribed peer, outside the normal sampling cadence. Permissive on
// purpose: works while streaming is off as long as a peer is still set.
func (in *Interpreter) retransmit(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) < 2 {
		in.logger.Warn("re_tx without index")
		return
	}

	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		in.logger.Warn("re_tx with bad index", slog.String("arg", parts[1]))
		return
	}

	record, ok := in.recorder.Get(index)
	if !ok {
		in.logger.Info("telemetry missing", slog.Int("index", index))
		return
	}

	peer, ok := in.state.Peer()
	if !ok {
		in.logger.Info("no peer addr to retransmit to")
		return
	}

	in.logger.Info("retransmitting", slog.Int("index", index))

	buf := record.Encode()
	if err := in.transport.Send(peer, buf[:]); err != nil {
		in.logger.Error("retransmit failed, unsubscribing peer",
			slog.String("peer", peer.String()),
			slog.String("error", err.Error()))
		in.state.ClearPeer()
	}
}

func (in *Interpreter) setReferencePressure(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) < 2 {
		in.logger.Info("no pressure provided")
		return
	}

	pa, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		in.logger.Warn("failed to parse pressure", slog.String("arg", parts[1]))
		return
	}

	in.altimeter.SetReferencePressure(pa)
	in.logger.Info("reference pressure updated", slog.Float64("pa", pa))
}
