package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/COMMENTERTHE9/Mnemo/internal/config"
	"github.com/COMMENTERTHE9/Mnemo/internal/store"
)

func main() {
	slog.Info("Starting database migrator")

	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conf, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open applies pending migrations as part of startup.
	st, err := store.Open(startupCtx, conf.DBPath)
	if err != nil {
		slog.Error("failed to open store", "path", conf.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	slog.Info("Database migrations completed successfully", "path", conf.DBPath)
}
