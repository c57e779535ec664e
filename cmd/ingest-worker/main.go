package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/COMMENTERTHE9/Mnemo/internal/config"
	"github.com/COMMENTERTHE9/Mnemo/internal/ingest"
	"github.com/COMMENTERTHE9/Mnemo/internal/store"
	"github.com/COMMENTERTHE9/Mnemo/internal/worktree"
	"github.com/COMMENTERTHE9/Mnemo/pkg/ffmpeg"
	"github.com/COMMENTERTHE9/Mnemo/pkg/ytdlp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting ingest worker")

	conf, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(conf.WorkRoot, 0o755); err != nil {
		slog.Error("failed to create work root", "dir", conf.WorkRoot, "error", err)
		os.Exit(1)
	}

	client := ytdlp.New()
	client.Path = conf.YtdlpPath
	client.CookieFile = conf.AuthCookiePath

	// Keep the downloader current; extractor breakage is the most common
	// failure mode in the field.
	updateCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if err := client.Update(updateCtx); err != nil {
		slog.Warn("failed to update yt-dlp", "error", err)
	} else {
		slog.Info("yt-dlp updated successfully")
	}
	cancel()

	st, err := store.OpenWithRetry(ctx, conf.DBPath, conf.StoreRetries)
	if err != nil {
		slog.Error("failed to open store", "path", conf.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	bin := ffmpeg.Binaries{Ffmpeg: conf.FfmpegPath, Ffprobe: conf.FfprobePath}
	tree := worktree.New(conf.WorkRoot)

	worker := &ingest.Worker{
		Queue:          st,
		Tree:           tree,
		Fetcher:        client,
		Sampler:        &ingest.FrameSampler{Bin: bin, Tree: tree},
		Audio:          &ingest.AudioExtractor{Bin: bin, Tree: tree},
		Bin:            bin,
		TargetFPS:      conf.FrameSampleRateFPS,
		SegmentSeconds: conf.AudioSegmentSeconds,
		IdleSleep:      time.Duration(conf.IdleSleepSeconds) * time.Second,
		Log:            slog.Default(),
	}

	if err := worker.Run(ctx); err != nil {
		slog.Error("ingest worker exited", "error", err)
		os.Exit(1)
	}
	slog.Info("Ingest worker stopping")
}
