package sensor

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// SimConfig shapes the simulated flight profile.
type SimConfig struct {
	PadPressure    float64       // Pa at the pad
	PadTemperature float64       // Degrees Celsius at the pad
	ApogeeFt       float64       // Peak altitude of the simulated flight
	AscentTime     time.Duration // Time from liftoff to apogee
	DescentTime    time.Duration // Time from apogee to touchdown
	Liftoff        time.Duration // Idle time on the pad before liftoff
	NoisePa        float64       // Gaussian pressure noise amplitude
	Seed           int64
}

// DefaultSimConfig is a small sport-rocket flight.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		PadPressure:    101320.75,
		PadTemperature: 18.5,
		ApogeeFt:       1500,
		AscentTime:     9 * time.Second,
		DescentTime:    45 * time.Second,
		Liftoff:        10 * time.Second,
		NoisePa:        4,
		Seed:           1,
	}
}

// SimBarometer synthesizes a barometric flight profile: pad idle, powered
// ascent to apogee, parachute descent, then pad again. It stands in for
// the pressure sensor when no hardware is attached.
type SimBarometer struct {
	cfg   SimConfig
	start time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	lastTmp float64
}

// NewSimBarometer starts a simulated flight clock at the time of the call.
func NewSimBarometer(cfg SimConfig) *SimBarometer {
	return &SimBarometer{
		cfg:   cfg,
		start: time.Now(),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *SimBarometer) ReadTemperature() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Temperature drifts slightly with altitude.
	alt := s.altitudeAt(time.Since(s.start))
	s.lastTmp = s.cfg.PadTemperature - alt/1000.0*1.98 + s.rng.NormFloat64()*0.05
	return s.lastTmp, nil
}

func (s *SimBarometer) ReadPressure(_ float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alt := s.altitudeAt(time.Since(s.start))
	p := s.cfg.PadPressure * math.Pow(1-alt/145366.45, 1/0.190284)
	return p + s.rng.NormFloat64()*s.cfg.NoisePa, nil
}

// altitudeAt returns the profile altitude in feet above the pad.
func (s *SimBarometer) altitudeAt(elapsed time.Duration) float64 {
	if elapsed < s.cfg.Liftoff {
		return 0
	}
	elapsed -= s.cfg.Liftoff

	if elapsed < s.cfg.AscentTime {
		// Half-sine ascent, steep in the middle of the burn.
		frac := elapsed.Seconds() / s.cfg.AscentTime.Seconds()
		return s.cfg.ApogeeFt * (1 - math.Cos(frac*math.Pi)) / 2
	}
	elapsed -= s.cfg.AscentTime

	if elapsed < s.cfg.DescentTime {
		frac := elapsed.Seconds() / s.cfg.DescentTime.Seconds()
		return s.cfg.ApogeeFt * (1 - frac)
	}
	return 0
}

// SimBattery models a linear discharge from full to empty over Runtime.
type SimBattery struct {
	start   time.Time
	full    float32
	empty   float32
	runtime time.Duration
}

// NewSimBattery creates a battery that discharges from 4.2 V to 3.3 V over
// the given runtime.
func NewSimBattery(runtime time.Duration) *SimBattery {
	return &SimBattery{
		start:   time.Now(),
		full:    4.2,
		empty:   3.3,
		runtime: runtime,
	}
}

func (s *SimBattery) Stats() (BatteryStats, error) {
	frac := float32(time.Since(s.start)) / float32(s.runtime)
	if frac > 1 {
		frac = 1
	}
	return BatteryStats{
		Charging: false,
		Voltage:  s.full - (s.full-s.empty)*frac,
	}, nil
}
