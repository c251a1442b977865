// Package sensor defines the flight computer's view of its measurement
// hardware. Register-level bus I/O lives behind these interfaces; the
// datalink core only ever sees blocking reads and errors.
package sensor

import "errors"

// ErrSensor indicates a bus or read failure. Recoverable: the sampling
// loop logs it and skips the cycle.
var ErrSensor = errors.New("sensor read failed")

// Barometer produces temperature-compensated pressure readings. Pressure
// conversion needs the temperature of the same measurement cycle, hence
// the two-step read.
type Barometer interface {
	// ReadTemperature triggers a measurement and returns degrees Celsius.
	ReadTemperature() (float64, error)

	// ReadPressure returns Pa, compensated with the given temperature.
	ReadPressure(temperature float64) (float64, error)
}

// BatteryStats is a snapshot of the battery monitor.
type BatteryStats struct {
	Charging bool
	Voltage  float32 // Volts
}

// Battery reports charge state and voltage.
type Battery interface {
	Stats() (BatteryStats, error)
}
