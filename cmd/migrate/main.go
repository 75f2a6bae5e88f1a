package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leadbridge/leadbridge/internal/app"
	"github.com/leadbridge/leadbridge/internal/platform/db"
)

const usage = "usage: migrate up|down|version"

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(context.Background(), cfg, logger, os.Args[1]); err != nil {
		logger.Error("migrate", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger, command string) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{ApplicationName: "leadbridge-migrate"})
	if err != nil {
		return err
	}
	defer pool.Close()

	m, err := db.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("close migrator", slog.Any("error", err))
		}
	}()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q; %s", command, usage)
	}
}
