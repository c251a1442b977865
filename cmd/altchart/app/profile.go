package app

import (
	"math"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/storage"
)

// ProfilePoint is one plotted sample of the altitude series.
type ProfilePoint struct {
	TimeMS     uint32
	AltitudeFt float64
}

// FlightProfile accumulates the altitude series and the flight extremes
// of one recording session. Records are expected in flight order, which
// is how the store hands them back.
type FlightProfile struct {
	Points []ProfilePoint

	ApogeeFt      float64
	ApogeeTimeMS  uint32
	MinAltitudeFt float64

	MinTemperatureC float64
	MaxTemperatureC float64

	MinBatteryV float64
	MaxBatteryV float64

	Records   int
	Recovered int

	FirstReceived time.Time
	LastReceived  time.Time
}

func NewFlightProfile() *FlightProfile {
	return &FlightProfile{
		ApogeeFt:        -math.MaxFloat64,
		MinAltitudeFt:   math.MaxFloat64,
		MinTemperatureC: math.MaxFloat64,
		MaxTemperatureC: -math.MaxFloat64,
		MinBatteryV:     math.MaxFloat64,
		MaxBatteryV:     -math.MaxFloat64,
	}
}

// Update folds one stored record into the profile.
func (p *FlightProfile) Update(rec storage.StoredRecord) {
	r := rec.Record
	altitude := float64(r.AltitudeFt)
	temperature := float64(r.TemperatureC)
	battery := float64(r.BatteryVoltageV)

	p.Points = append(p.Points, ProfilePoint{TimeMS: r.TimeMS, AltitudeFt: altitude})

	if altitude > p.ApogeeFt {
		p.ApogeeFt = altitude
		p.ApogeeTimeMS = r.TimeMS
	}
	p.MinAltitudeFt = math.Min(p.MinAltitudeFt, altitude)
	p.MinTemperatureC = math.Min(p.MinTemperatureC, temperature)
	p.MaxTemperatureC = math.Max(p.MaxTemperatureC, temperature)
	p.MinBatteryV = math.Min(p.MinBatteryV, battery)
	p.MaxBatteryV = math.Max(p.MaxBatteryV, battery)

	if p.Records == 0 || rec.ReceivedAt.Before(p.FirstReceived) {
		p.FirstReceived = rec.ReceivedAt
	}
	if rec.ReceivedAt.After(p.LastReceived) {
		p.LastReceived = rec.ReceivedAt
	}

	p.Records++
	if rec.Retransmitted {
		p.Recovered++
	}
}

// Empty reports whether no records were folded in.
func (p *FlightProfile) Empty() bool { return p.Records == 0 }

// StartMS and EndMS bound the flight-time axis.
func (p *FlightProfile) StartMS() uint32 {
	if p.Empty() {
		return 0
	}
	return p.Points[0].TimeMS
}

func (p *FlightProfile) EndMS() uint32 {
	if p.Empty() {
		return 0
	}
	return p.Points[len(p.Points)-1].TimeMS
}

// Duration is the flight-time span covered by the series.
func (p *FlightProfile) Duration() time.Duration {
	return time.Duration(p.EndMS()-p.StartMS()) * time.Millisecond
}
