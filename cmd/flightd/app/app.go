package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/datalink"
	"github.com/roman-kulish/rocket-telemetry/internal/link"
	"github.com/roman-kulish/rocket-telemetry/internal/sensor"
)

// logBuzzer stands in for the piezo driver on builds without the GPIO
// attached.
type logBuzzer struct {
	logger *slog.Logger
}

func (b logBuzzer) Beep() {
	b.logger.Info("buzzer: beep")
}

// Run wires the transport, sensors and coordinator, then blocks until the
// context is cancelled.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	local, err := link.ParsePeerAddr(config.Link.LocalPeer)
	if err != nil {
		return fmt.Errorf("parsing link.localPeer: %w", err)
	}

	transport, err := link.NewUDPTransport(local, config.Link.Listen, link.WithUDPLogger(logger))
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}
	defer transport.Close()

	logger.Info("datalink up",
		slog.String("localPeer", local.String()),
		slog.String("listen", transport.LocalAddr().String()))

	baro, battery := createSensors(&config.Sensor)

	coordinator := datalink.NewCoordinator(transport, baro, battery,
		datalink.WithLogger(logger),
		datalink.WithSampleInterval(config.Sampling.Interval()),
		datalink.WithRecorderCapacity(config.Sampling.RecorderCapacity),
		datalink.WithBuzzer(logBuzzer{logger: logger}),
	)

	return coordinator.Run(ctx)
}

func createSensors(config *SensorConfig) (sensor.Barometer, sensor.Battery) {
	simConfig := sensor.DefaultSimConfig()
	if config.PadPressurePa > 0 {
		simConfig.PadPressure = config.PadPressurePa
	}
	if config.ApogeeFt > 0 {
		simConfig.ApogeeFt = config.ApogeeFt
	}
	if config.AscentTimeS > 0 {
		simConfig.AscentTime = time.Duration(config.AscentTimeS) * time.Second
	}
	if config.DescentTimeS > 0 {
		simConfig.DescentTime = time.Duration(config.DescentTimeS) * time.Second
	}
	if config.LiftoffDelayS > 0 {
		simConfig.Liftoff = time.Duration(config.LiftoffDelayS) * time.Second
	}

	runtime := 90 * time.Minute
	if config.BatteryRuntime > 0 {
		runtime = time.Duration(config.BatteryRuntime) * time.Minute
	}

	return sensor.NewSimBarometer(simConfig), sensor.NewSimBattery(runtime)
}
