package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/COMMENTERTHE9/Mnemo/internal/config"
	"github.com/COMMENTERTHE9/Mnemo/internal/motionworker"
	"github.com/COMMENTERTHE9/Mnemo/internal/pose"
	"github.com/COMMENTERTHE9/Mnemo/internal/store"
	"github.com/COMMENTERTHE9/Mnemo/internal/worktree"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting motion worker")

	conf, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := store.OpenWithRetry(ctx, conf.DBPath, conf.StoreRetries)
	if err != nil {
		slog.Error("failed to open store", "path", conf.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	worker := &motionworker.Worker{
		Reports:   st,
		Tree:      worktree.New(conf.WorkRoot),
		Estimator: pose.NewCommandEstimator(conf.PoseEstimatorPath),
		IdleSleep: time.Duration(conf.IdleSleepSeconds) * time.Second,
		Log:       slog.Default(),
	}

	if err := worker.Run(ctx); err != nil {
		slog.Error("motion worker exited", "error", err)
		os.Exit(1)
	}
	slog.Info("Motion worker stopping")
}
