package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/roman-kulish/rocket-telemetry/cmd/flightd/app"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{TimeFormat: time.Kitchen}))

	var configPath string
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.Parse()

	if configPath == "" {
		logger.Error("no configuration file provided")
		os.Exit(1)
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", configPath))
		os.Exit(1)
	}

	logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      config.LogLevel(),
		TimeFormat: time.Kitchen,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, logger); err != nil && ctx.Err() == nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
