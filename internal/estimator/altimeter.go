package estimator

import (
	"math"
	"sync"
)

const (
	// DefaultReferencePressure is the assumed sea-level pressure in Pa used
	// to convert measured pressure to altitude until the ground station
	// sends a corrected value.
	DefaultReferencePressure = 101320.75

	// Kalman seed and noise constants for the barometric pressure signal.
	seedEstimate     = 101325.0
	seedVariance     = 1.0
	measurementNoise = 1.5
	processNoise     = 0.05
)

// Stats is a snapshot of the current readings and their running extrema.
// Before the first sample the extrema carry sentinel values so that any
// real sample establishes minimum == current == maximum.
type Stats struct {
	Altitude         float64 // Feet, derived from the filtered pressure
	Temperature      float64 // Degrees Celsius
	Pressure         float64 // Pa, raw reading
	FilteredPressure float64 // Pa, Kalman estimate

	MaximumAltitude    float64
	MinimumAltitude    float64
	MaximumTemperature float64
	MinimumTemperature float64
	MaximumPressure    float64
	MinimumPressure    float64
}

func defaultStats() Stats {
	return Stats{
		MaximumAltitude:    -math.MaxFloat64,
		MinimumAltitude:    math.MaxFloat64,
		MaximumTemperature: -math.MaxFloat64,
		MinimumTemperature: math.MaxFloat64,
		MaximumPressure:    -math.MaxFloat64,
		MinimumPressure:    math.MaxFloat64,
	}
}

// Altimeter converts raw pressure and temperature readings into altitude.
// Update is called from the sampling loop only; Stats, Reset and
// SetReferencePressure may be called from other goroutines.
type Altimeter struct {
	mu     sync.Mutex
	filter *Filter
	stats  Stats

	// The reference pressure is written by the command loop while the
	// sampling loop reads it, so it gets its own guard independent of the
	// stats mutex.
	refMu             sync.Mutex
	referencePressure float64
}

// NewAltimeter creates an altimeter with the default reference pressure.
func NewAltimeter() *Altimeter {
	return &Altimeter{
		filter:            NewFilter(seedEstimate, seedVariance),
		stats:             defaultStats(),
		referencePressure: DefaultReferencePressure,
	}
}

// Altitude converts a pressure reading to feet above the datum implied by
// the reference pressure (NOAA pressure altitude formula).
func Altitude(pressure, referencePressure float64) float64 {
	return 145366.45 * (1 - math.Pow(pressure/referencePressure, 0.190284))
}

// Update runs the Kalman filter on the raw pressure, derives altitude from
// the filtered value and refreshes the running extrema. It returns a
// snapshot of the updated stats.
func (a *Altimeter) Update(pressure, temperature float64) Stats {
	ref := a.ReferencePressure()

	a.mu.Lock()
	defer a.mu.Unlock()

	filtered := a.filter.Update(measurementNoise, pressure, processNoise)
	altitude := Altitude(filtered, ref)

	s := &a.stats
	s.Altitude = altitude
	s.Temperature = temperature
	s.Pressure = pressure
	s.FilteredPressure = filtered

	s.MaximumAltitude = math.Max(s.MaximumAltitude, altitude)
	s.MinimumAltitude = math.Min(s.MinimumAltitude, altitude)
	s.MaximumTemperature = math.Max(s.MaximumTemperature, temperature)
	s.MinimumTemperature = math.Min(s.MinimumTemperature, temperature)
	s.MaximumPressure = math.Max(s.MaximumPressure, pressure)
	s.MinimumPressure = math.Min(s.MinimumPressure, pressure)

	return *s
}

// Stats returns a snapshot of the current stats.
func (a *Altimeter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Reset reinitializes the stats and returns the filter to its seed state.
func (a *Altimeter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = defaultStats()
	a.filter.Reset()
}

// SetReferencePressure updates the sea-level reference in Pa. It takes
// effect on the next Update.
func (a *Altimeter) SetReferencePressure(pa float64) {
	a.refMu.Lock()
	a.referencePressure = pa
	a.refMu.Unlock()
}

// ReferencePressure returns the current sea-level reference in Pa.
func (a *Altimeter) ReferencePressure() float64 {
	a.refMu.Lock()
	defer a.refMu.Unlock()
	return a.referencePressure
}
