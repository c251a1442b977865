package app

import (
	"testing"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/storage"
	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

func stored(timeMS uint32, altitudeFt, temperatureC, batteryV float32, retransmitted bool) storage.StoredRecord {
	return storage.StoredRecord{
		ReceivedAt: time.Unix(1700000000, 0).Add(time.Duration(timeMS) * time.Millisecond),
		Record: telemetry.Record{
			TimeMS:          timeMS,
			AltitudeFt:      altitudeFt,
			TemperatureC:    temperatureC,
			BatteryVoltageV: batteryV,
		},
		Retransmitted: retransmitted,
	}
}

func TestFlightProfileExtremes(t *testing.T) {
	p := NewFlightProfile()
	p.Update(stored(1000, 2.5, 21.0, 4.19, false))
	p.Update(stored(1100, 480.2, 19.5, 4.15, false))
	p.Update(stored(1200, 1503.8, 14.2, 4.11, true))
	p.Update(stored(1300, 1100.0, 15.8, 4.08, false))

	if float32(p.ApogeeFt) != 1503.8 {
		t.Errorf("ApogeeFt = %v, want 1503.8", p.ApogeeFt)
	}
	if p.ApogeeTimeMS != 1200 {
		t.Errorf("ApogeeTimeMS = %d, want 1200", p.ApogeeTimeMS)
	}
	if float32(p.MinAltitudeFt) != 2.5 {
		t.Errorf("MinAltitudeFt = %v, want 2.5", p.MinAltitudeFt)
	}
	if float32(p.MinTemperatureC) != 14.2 || float32(p.MaxTemperatureC) != 21.0 {
		t.Errorf("temperature range = %v..%v, want 14.2..21", p.MinTemperatureC, p.MaxTemperatureC)
	}
	if float32(p.MinBatteryV) != 4.08 || float32(p.MaxBatteryV) != 4.19 {
		t.Errorf("battery range = %v..%v, want 4.08..4.19", p.MinBatteryV, p.MaxBatteryV)
	}
	if p.Records != 4 || p.Recovered != 1 {
		t.Errorf("Records = %d, Recovered = %d, want 4 and 1", p.Records, p.Recovered)
	}
}

func TestFlightProfileTimeBounds(t *testing.T) {
	p := NewFlightProfile()
	if !p.Empty() {
		t.Fatal("new profile should be empty")
	}

	p.Update(stored(500, 0, 20, 4.2, false))
	p.Update(stored(4500, 100, 20, 4.2, false))

	if p.Empty() {
		t.Fatal("profile with records reported empty")
	}
	if p.StartMS() != 500 || p.EndMS() != 4500 {
		t.Errorf("time bounds = %d..%d, want 500..4500", p.StartMS(), p.EndMS())
	}
	if p.Duration() != 4*time.Second {
		t.Errorf("Duration = %s, want 4s", p.Duration())
	}
}
