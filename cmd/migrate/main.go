package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/polkiloo/archstore/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn := fs.String("d", os.Getenv("DATABASE_URI"), "PostgreSQL DSN")
	down := fs.Int("down", 0, "Roll back the given number of migrations instead of applying")
	_ = fs.Parse(os.Args[1:])

	if *dsn == "" {
		logger.Error("database dsn is required (-d or DATABASE_URI)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	if *down > 0 {
		err = postgres.MigrateDown(ctx, *dsn, *down)
	} else {
		err = postgres.MigrateUp(ctx, *dsn)
	}
	if err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied", slog.Int("down", *down))
}
