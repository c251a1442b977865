package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"
)

const (
	dpi            = 120.0
	fontSize       = 12.0
	tickMarkHeight = 5
	pixelsPerLabel = 150.0

	defaultPlotWidth  = 900
	defaultPlotHeight = 500

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 90
	defaultBottomBorder = 90
	defaultRightBorder  = 40
)

var (
	seriesColor = color.RGBA{R: 0x1f, G: 0x4e, B: 0xb0, A: 0xff}
	apogeeColor = color.RGBA{R: 0xc0, G: 0x2a, B: 0x2a, A: 0xff}
	gridColor   = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
)

// BorderConfig defines the sizes of white space around the plot area
type BorderConfig struct {
	Top    int // Top padding
	Left   int // Space for altitude scale
	Bottom int // Space for time scale and information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for the altitude chart
type RenderConfig struct {
	FontPath string  // TrueType font used for labels
	FontSize float64 // Font size in points

	PlotWidth  int // Plot area width in pixels
	PlotHeight int // Plot area height in pixels

	BorderConfig BorderConfig
}

// ChartRenderer draws the altitude-over-time chart of one flight
type ChartRenderer struct {
	config RenderConfig
}

// NewChartRenderer creates a renderer with the given configuration
func NewChartRenderer(config RenderConfig) (*ChartRenderer, error) {
	// Set defaults for zero values
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.PlotWidth == 0 {
		config.PlotWidth = defaultPlotWidth
	}
	if config.PlotHeight == 0 {
		config.PlotHeight = defaultPlotHeight
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &ChartRenderer{config: config}, nil
}

// Render creates an image of the flight profile with annotations
func (r *ChartRenderer) Render(profile *FlightProfile) (*image.RGBA, error) {
	if profile.Empty() {
		return nil, fmt.Errorf("session has no records")
	}

	fullWidth := r.config.PlotWidth + r.config.BorderConfig.Left + r.config.BorderConfig.Right
	fullHeight := r.config.PlotHeight + r.config.BorderConfig.Top + r.config.BorderConfig.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	plotArea := image.Rect(
		r.config.BorderConfig.Left,
		r.config.BorderConfig.Top,
		r.config.BorderConfig.Left+r.config.PlotWidth,
		r.config.BorderConfig.Top+r.config.PlotHeight,
	)

	scale := newChartScale(plotArea, profile)

	ann, err := newAnnotator(annotatorConfig{
		FontPath: r.config.FontPath,
		FontSize: r.config.FontSize,
		Borders:  r.config.BorderConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, plotArea, scale, profile); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	r.renderSeries(img, scale, profile)

	return img, nil
}

// renderSeries draws the altitude polyline and marks the apogee
func (r *ChartRenderer) renderSeries(img *image.RGBA, scale chartScale, profile *FlightProfile) {
	prev := image.Point{}
	for i, pt := range profile.Points {
		cur := image.Point{X: scale.x(pt.TimeMS), Y: scale.y(pt.AltitudeFt)}
		if i > 0 {
			drawLine(img, prev, cur, seriesColor)
		}
		prev = cur
	}

	apogee := image.Point{X: scale.x(profile.ApogeeTimeMS), Y: scale.y(profile.ApogeeFt)}
	drawMarker(img, apogee, 3, apogeeColor)
}

// chartScale maps flight time and altitude into the plot area. The
// altitude axis is widened to nice step multiples so that gridlines land
// on round values.
type chartScale struct {
	area image.Rectangle

	startMS uint32
	spanMS  uint32

	minAlt  float64
	spanAlt float64

	altStep  float64
	timeStep time.Duration
}

func newChartScale(area image.Rectangle, profile *FlightProfile) chartScale {
	startMS := profile.StartMS()
	spanMS := profile.EndMS() - startMS

	altStep := calculateNiceAltitudeStep(profile.ApogeeFt-profile.MinAltitudeFt, area.Dy())
	minAlt := math.Floor(profile.MinAltitudeFt/altStep) * altStep
	maxAlt := math.Ceil(profile.ApogeeFt/altStep) * altStep
	if maxAlt == minAlt {
		maxAlt = minAlt + altStep
	}

	return chartScale{
		area:     area,
		startMS:  startMS,
		spanMS:   spanMS,
		minAlt:   minAlt,
		spanAlt:  maxAlt - minAlt,
		altStep:  altStep,
		timeStep: calculateNiceTimeStep(time.Duration(spanMS)*time.Millisecond, area.Dx()),
	}
}

func (s chartScale) x(timeMS uint32) int {
	if s.spanMS == 0 {
		return s.area.Min.X
	}
	ratio := float64(timeMS-s.startMS) / float64(s.spanMS)
	return s.area.Min.X + int(math.Round(ratio*float64(s.area.Dx()-1)))
}

func (s chartScale) y(altitudeFt float64) int {
	ratio := (altitudeFt - s.minAlt) / s.spanAlt
	return s.area.Max.Y - 1 - int(math.Round(ratio*float64(s.area.Dy()-1)))
}

// drawLine draws a straight segment using a float DDA. Chart segments are
// short so precision is not a concern.
func drawLine(img *image.RGBA, from, to image.Point, c color.Color) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		img.Set(from.X, from.Y, c)
		return
	}

	xStep := float64(dx) / float64(steps)
	yStep := float64(dy) / float64(steps)
	x, y := float64(from.X), float64(from.Y)
	for i := 0; i <= steps; i++ {
		img.Set(int(math.Round(x)), int(math.Round(y)), c)
		x += xStep
		y += yStep
	}
}

func drawMarker(img *image.RGBA, at image.Point, radius int, c color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(at.X+dx, at.Y+dy, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Helper functions

func calculateNiceAltitudeStep(range_ float64, height int) float64 {
	// Standard step sizes in feet
	steps := []float64{
		1, 2, 5,
		10, 25, 50,
		100, 250, 500,
		1_000, 2_500, 5_000,
		10_000,
	}

	desiredSteps := float64(height) / pixelsPerLabel
	if desiredSteps < 2 {
		desiredSteps = 2
	}
	targetStep := range_ / desiredSteps

	for _, step := range steps {
		if step >= targetStep {
			return step
		}
	}

	return steps[len(steps)-1]
}

func calculateNiceTimeStep(duration time.Duration, width int) time.Duration {
	// Nice time intervals for a model rocket flight
	niceIntervals := []time.Duration{
		time.Second,
		2 * time.Second,
		5 * time.Second,
		10 * time.Second,
		15 * time.Second,
		30 * time.Second,
		time.Minute,
		2 * time.Minute,
		5 * time.Minute,
	}

	desiredSteps := float64(width) / pixelsPerLabel
	if desiredSteps < 2 {
		desiredSteps = 2
	}
	targetStep := time.Duration(float64(duration) / desiredSteps)

	for _, interval := range niceIntervals {
		if interval >= targetStep {
			return interval
		}
	}

	return niceIntervals[len(niceIntervals)-1]
}
