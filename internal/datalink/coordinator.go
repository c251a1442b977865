package datalink

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/estimator"
	"github.com/roman-kulish/rocket-telemetry/internal/link"
	"github.com/roman-kulish/rocket-telemetry/internal/recording"
	"github.com/roman-kulish/rocket-telemetry/internal/sensor"
	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

const defaultSampleInterval = 100 * time.Millisecond

// WithLogger sets the logger for the coordinator and its interpreter.
func WithLogger(logger *slog.Logger) func(*Coordinator) {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithSampleInterval sets the sampling cadence. The interval also covers
// the sensor's measurement settle time.
func WithSampleInterval(d time.Duration) func(*Coordinator) {
	return func(c *Coordinator) {
		c.interval = d
	}
}

// WithRecorderCapacity bounds the retransmission buffer.
func WithRecorderCapacity(n int) func(*Coordinator) {
	return func(c *Coordinator) {
		c.recorder = recording.NewBuffer(n)
	}
}

// WithBuzzer attaches the audible alert driver.
func WithBuzzer(b Buzzer) func(*Coordinator) {
	return func(c *Coordinator) {
		c.buzzer = b
	}
}

// Coordinator owns the shared streaming state and drives the flight
// computer's two application loops: the sampling loop holding the sensors,
// and the command loop draining the transport. The transport's own I/O
// loop runs inside the link adapter. A failed sensor read or a bad command
// only ever costs its own loop iteration.
type Coordinator struct {
	logger *slog.Logger

	transport link.Transport
	baro      sensor.Barometer
	battery   sensor.Battery
	buzzer    Buzzer

	altimeter *estimator.Altimeter
	recorder  *recording.Buffer
	state     *State
	interp    *Interpreter

	interval time.Duration
	start    time.Time

	wg sync.WaitGroup
}

// NewCoordinator creates a coordinator in the idle state.
func NewCoordinator(transport link.Transport, baro sensor.Barometer, battery sensor.Battery, options ...func(*Coordinator)) *Coordinator {
	c := &Coordinator{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		transport: transport,
		baro:      baro,
		battery:   battery,
		buzzer:    NopBuzzer{},
		altimeter: estimator.NewAltimeter(),
		recorder:  recording.NewBuffer(recording.DefaultCapacity),
		state:     NewState(),
		interval:  defaultSampleInterval,
	}

	for _, option := range options {
		option(c)
	}

	c.interp = NewInterpreter(c.state, c.recorder, c.altimeter, c.transport, c.buzzer, c.logger)
	return c
}

// Altimeter exposes the estimator for local display.
func (c *Coordinator) Altimeter() *estimator.Altimeter { return c.altimeter }

// Run starts the sampling and command loops and blocks until the context
// is cancelled and both loops have stopped.
func (c *Coordinator) Run(ctx context.Context) error {
	c.start = time.Now()

	c.wg.Add(2)
	go c.samplingLoop(ctx)
	go c.commandLoop(ctx)

	c.wg.Wait()
	return ctx.Err()
}

func (c *Coordinator) samplingLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("sampling started", slog.Duration("interval", c.interval))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("sampling stopped")
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

// sample runs one measurement cycle. Sensor errors skip the cycle; a send
// failure unsubscribes the unreachable peer. Neither stops the loop.
func (c *Coordinator) sample() {
	temperature, err := c.baro.ReadTemperature()
	if err != nil {
		c.logger.Error("failed to read temperature", slog.String("error", err.Error()))
		return
	}

	pressure, err := c.baro.ReadPressure(temperature)
	if err != nil {
		c.logger.Error("failed to read pressure", slog.String("error", err.Error()))
		return
	}

	stats := c.altimeter.Update(pressure, temperature)

	peer, streaming := c.state.Streaming()
	if !streaming {
		return
	}

	c.logger.Debug("telemetry cycle",
		slog.Float64("altitude", stats.Altitude),
		slog.String("peer", peer.String()))

	var battery sensor.BatteryStats
	if battery, err = c.battery.Stats(); err != nil {
		c.logger.Error("failed to read battery", slog.String("error", err.Error()))
		// Voltage stays zero; altitude telemetry is worth more than the
		// battery reading.
	}

	record := telemetry.Record{
		TimeMS:          uint32(time.Since(c.start).Milliseconds()),
		AltitudeFt:      float32(stats.Altitude),
		TemperatureC:    float32(stats.Temperature),
		BatteryVoltageV: battery.Voltage,
	}

	// Transmit only what was recorded, so re_tx indices match the stream.
	if !c.recorder.TryPush(record) {
		return
	}

	buf := record.Encode()
	if err = c.transport.Send(peer, buf[:]); err != nil {
		c.logger.Error("send failed, unsubscribing peer",
			slog.String("peer", peer.String()),
			slog.String("error", err.Error()))
		c.state.ClearPeer()
	}
}

func (c *Coordinator) commandLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.transport.Inbound():
			if !ok {
				c.logger.Info("transport closed, command loop exiting")
				return
			}
			c.interp.Handle(msg.Peer, msg.Payload)
		}
	}
}
