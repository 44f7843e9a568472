package main

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
)

func run(ctx context.Context, app *fx.App) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := app.Start(ctx); err != nil {
		logger.Error("failed to start application", slog.Any("error", err))
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error("failed to stop application", slog.Any("error", err))
		os.Exit(1)
	}
}
