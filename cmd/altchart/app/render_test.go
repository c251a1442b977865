package app

import (
	"image"
	"testing"
	"time"
)

func TestCalculateNiceAltitudeStep(t *testing.T) {
	tests := []struct {
		name   string
		range_ float64
		height int
		want   float64
	}{
		{"low hop", 120, 500, 50},
		{"typical flight", 1500, 500, 500},
		{"high flight", 9000, 500, 5000},
		{"tall plot", 1500, 1500, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateNiceAltitudeStep(tt.range_, tt.height); got != tt.want {
				t.Errorf("calculateNiceAltitudeStep(%v, %d) = %v, want %v", tt.range_, tt.height, got, tt.want)
			}
		})
	}
}

func TestCalculateNiceTimeStep(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		width    int
		want     time.Duration
	}{
		{"short flight", 45 * time.Second, 900, 10 * time.Second},
		{"long descent", 5 * time.Minute, 900, time.Minute},
		{"narrow plot", 45 * time.Second, 300, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateNiceTimeStep(tt.duration, tt.width); got != tt.want {
				t.Errorf("calculateNiceTimeStep(%s, %d) = %s, want %s", tt.duration, tt.width, got, tt.want)
			}
		})
	}
}

func TestChartScaleMapping(t *testing.T) {
	p := NewFlightProfile()
	p.Update(stored(0, 0, 20, 4.2, false))
	p.Update(stored(10_000, 1000, 20, 4.2, false))

	area := image.Rect(100, 40, 200, 140)
	s := newChartScale(area, p)

	if got := s.x(0); got != area.Min.X {
		t.Errorf("x(start) = %d, want %d", got, area.Min.X)
	}
	if got := s.x(10_000); got != area.Max.X-1 {
		t.Errorf("x(end) = %d, want %d", got, area.Max.X-1)
	}

	// Axis bounds land on nice step multiples, so the extremes map
	// onto the edges here.
	if got := s.y(s.minAlt); got != area.Max.Y-1 {
		t.Errorf("y(min) = %d, want %d", got, area.Max.Y-1)
	}
	if got := s.y(s.minAlt + s.spanAlt); got != area.Min.Y {
		t.Errorf("y(max) = %d, want %d", got, area.Min.Y)
	}

	mid := s.y(s.minAlt + s.spanAlt/2)
	if mid <= area.Min.Y || mid >= area.Max.Y-1 {
		t.Errorf("y(mid) = %d, want inside (%d, %d)", mid, area.Min.Y, area.Max.Y-1)
	}
}

func TestChartScaleDegenerateSpans(t *testing.T) {
	p := NewFlightProfile()
	p.Update(stored(1000, 5, 20, 4.2, false))
	p.Update(stored(1000, 5, 20, 4.2, false))

	area := image.Rect(0, 0, 100, 100)
	s := newChartScale(area, p)

	if got := s.x(1000); got != area.Min.X {
		t.Errorf("x on zero time span = %d, want %d", got, area.Min.X)
	}
	if s.spanAlt <= 0 {
		t.Errorf("spanAlt = %v, want positive on flat series", s.spanAlt)
	}
}

func TestFormatFlightTime(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
		{2*time.Minute + 5*time.Second, "2m05s"},
	}

	for _, tt := range tests {
		if got := formatFlightTime(tt.elapsed); got != tt.want {
			t.Errorf("formatFlightTime(%s) = %q, want %q", tt.elapsed, got, tt.want)
		}
	}
}
