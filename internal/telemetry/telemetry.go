package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// RecordSize is the length in bytes of an encoded Record on the wire.
const RecordSize = 16

// ErrTruncated is returned when a payload is too short to hold a Record.
var ErrTruncated = errors.New("telemetry payload truncated")

// Record is a single telemetry sample emitted by the flight computer.
// Immutable once constructed; altitude and temperature are narrowed to
// float32 on the wire.
type Record struct {
	TimeMS          uint32  // Milliseconds since the sampling loop started
	AltitudeFt      float32 // Filtered barometric altitude in feet
	TemperatureC    float32 // Sensor temperature in degrees Celsius
	BatteryVoltageV float32 // Battery voltage in volts
}

// Encode serializes the record into its fixed 16-byte little-endian layout:
// time(u32), altitude(f32), temperature(f32), battery voltage(f32).
func (r Record) Encode() [RecordSize]byte {
	var buf [RecordSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], r.TimeMS)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(r.AltitudeFt))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(r.TemperatureC))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(r.BatteryVoltageV))
	return buf
}

// Decode parses a Record from the first RecordSize bytes of b. Trailing
// bytes are ignored: the radio transport may over-allocate its frames.
func Decode(b []byte) (Record, error) {
	if len(b) < RecordSize {
		return Record{}, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncated, len(b), RecordSize)
	}

	return Record{
		TimeMS:          binary.LittleEndian.Uint32(b[0:4]),
		AltitudeFt:      math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		TemperatureC:    math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		BatteryVoltageV: math.Float32frombits(binary.LittleEndian.Uint32(b[12:16])),
	}, nil
}
