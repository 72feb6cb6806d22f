// Command dbcheck verifies that the configured database is reachable and
// lists its tables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sharebite/internal/config"
	"sharebite/internal/database"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(context.Background()); err != nil {
		slog.Error("database check failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBDriver == config.DriverMemory {
		return fmt.Errorf("DB_DRIVER=%s has no database to check", cfg.DBDriver)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Ping(ctx, db, 5*time.Second); err != nil {
		return err
	}

	tables, err := database.Tables(db)
	if err != nil {
		return err
	}
	fmt.Printf("Connected to %s database. Tables:\n", cfg.DBDriver)
	for _, table := range tables {
		fmt.Printf("  - %s\n", table)
	}
	return nil
}
