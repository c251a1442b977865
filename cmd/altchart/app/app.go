package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/roman-kulish/rocket-telemetry/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("flight log '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewStore(config.DBPath)
	defer store.Close()

	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %d not found", config.SessionID)
	}

	logger.Info("rendering session",
		slog.Int64("session", session.ID),
		slog.String("peer", session.Peer),
		slog.String("started", session.StartTime.Local().Format(time.DateTime)))

	profile, err := readProfile(ctx, store, config.SessionID)
	if err != nil {
		return err
	}
	if profile.Empty() {
		return fmt.Errorf("session %d has no records", config.SessionID)
	}

	logger.Info("finished reading records",
		slog.Group("stats",
			slog.Int("records", profile.Records),
			slog.Int("recovered", profile.Recovered),
			slog.String("apogee", fmt.Sprintf("%.1fft", profile.ApogeeFt)),
			slog.String("duration", profile.Duration().String()),
		))

	renderer, err := NewChartRenderer(RenderConfig{
		FontPath:   config.FontPath,
		PlotWidth:  config.PlotWidth,
		PlotHeight: config.PlotHeight,
	})
	if err != nil {
		return fmt.Errorf("creating chart renderer: %w", err)
	}

	logger.Info("rendering chart",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", config.PlotWidth),
			slog.Int("height", config.PlotHeight),
		))

	img, err := renderer.Render(profile)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}

func readProfile(ctx context.Context, store *storage.Store, sessionID int64) (*FlightProfile, error) {
	iter, err := store.ReadRecords(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	defer iter.Close()

	profile := NewFlightProfile()
	for iter.Next() {
		profile.Update(iter.Current())
	}
	if err = iter.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return profile, nil
}
