package app

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

type annotatorConfig struct {
	FontPath string
	FontSize float64
	Borders  BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	fontBytes, err := os.ReadFile(config.FontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, plotArea image.Rectangle, scale chartScale, profile *FlightProfile) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawAltitudeScale(img, plotArea, scale); err != nil {
		return fmt.Errorf("drawing altitude scale: %w", err)
	}
	if err := a.drawTimeScale(img, plotArea, scale); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawInfoBar(img, profile); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

// drawAltitudeScale draws tick marks, gridlines and labels on the left
// edge, one per nice altitude step.
func (a *annotator) drawAltitudeScale(img *image.RGBA, plotArea image.Rectangle, scale chartScale) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	maxAlt := scale.minAlt + scale.spanAlt + scale.altStep/2
	for alt := scale.minAlt; alt <= maxAlt; alt += scale.altStep {
		y := scale.y(alt)

		// Gridline across the plot, tick mark outside it
		for x := plotArea.Min.X; x < plotArea.Max.X; x++ {
			img.Set(x, y, gridColor)
		}
		for x := plotArea.Min.X - tickMarkHeight; x < plotArea.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := humanize.Commaf(alt)
		width := font.MeasureString(a.fontFace, label)
		textY := y + fontHeight/2 - metrics.Descent.Round()
		pt := freetype.Pt(plotArea.Min.X-tickMarkHeight-4-width.Round(), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing altitude label: %w", err)
		}
	}
	return nil
}

// drawTimeScale draws tick marks and labels along the bottom edge, one
// per nice time step of flight time.
func (a *annotator) drawTimeScale(img *image.RGBA, plotArea image.Rectangle, scale chartScale) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	span := time.Duration(scale.spanMS) * time.Millisecond
	for elapsed := time.Duration(0); elapsed <= span; elapsed += scale.timeStep {
		x := scale.x(scale.startMS + uint32(elapsed.Milliseconds()))

		for y := plotArea.Max.Y; y < plotArea.Max.Y+tickMarkHeight; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatFlightTime(elapsed)
		width := font.MeasureString(a.fontFace, label)
		textY := plotArea.Max.Y + tickMarkHeight + fontHeight
		pt := freetype.Pt(x-width.Round()/2, textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

// drawInfoBar summarises the flight in the bottom border.
func (a *annotator) drawInfoBar(img *image.RGBA, profile *FlightProfile) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Apogee: %s ft at %s",
		humanize.CommafWithDigits(profile.ApogeeFt, 1),
		formatFlightTime(time.Duration(profile.ApogeeTimeMS-profile.StartMS())*time.Millisecond)))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Records: %s", humanize.Comma(int64(profile.Records))))
	if profile.Recovered > 0 {
		sb.WriteString(fmt.Sprintf(" (%s recovered)", humanize.Comma(int64(profile.Recovered))))
	}
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Temp: %.1f to %.1f C", profile.MinTemperatureC, profile.MaxTemperatureC))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Battery: %.2f to %.2f V", profile.MaxBatteryV, profile.MinBatteryV))

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// Center text vertically in the space below the time scale
	textY := img.Bounds().Max.Y - fontHeight/2

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}

// formatFlightTime renders elapsed flight time as "45s" or "1m30s".
func formatFlightTime(elapsed time.Duration) string {
	elapsed = elapsed.Round(time.Second)
	if elapsed < time.Minute {
		return fmt.Sprintf("%ds", int(elapsed.Seconds()))
	}
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) - minutes*60
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}
