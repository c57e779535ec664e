package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/COMMENTERTHE9/Mnemo/internal/report"
	"github.com/COMMENTERTHE9/Mnemo/internal/store"
	"github.com/COMMENTERTHE9/Mnemo/internal/worktree"
	"github.com/COMMENTERTHE9/Mnemo/pkg/ffmpeg"
	"github.com/COMMENTERTHE9/Mnemo/pkg/ytdlp"
)

// audioFrameRate converts audio segment boundaries to nominal frame
// indices for report rows.
const audioFrameRate = 30

// Fetcher downloads a source URL into a local container file.
type Fetcher interface {
	Fetch(ctx context.Context, url, outputPath string) error
}

// Sampler walks a container's sampled frames. *FrameSampler is the real one.
type Sampler interface {
	SampleFrames(ctx context.Context, containerPath, videoID string, targetFPS float64, sink FrameSink) (int, error)
}

// AudioPipeline extracts and slices a container's audio track.
// *AudioExtractor is the real one.
type AudioPipeline interface {
	ExtractFullAudio(ctx context.Context, containerPath, videoID string) (string, *AudioInfo, error)
	ExtractSegments(ctx context.Context, wavPath, videoID string, segmentSeconds float64, sink SegmentSink) (int, error)
}

// Queue is the store surface the ingest worker drives.
type Queue interface {
	ClaimNextTask(ctx context.Context, taskType string) (*store.ClaimedTask, error)
	CompleteTask(ctx context.Context, taskID int64) error
	FailTask(ctx context.Context, taskID int64, reason string) error
	UpdateVideoProgress(ctx context.Context, videoID string, meta store.VideoMeta, status string) error
	InsertGapperReport(ctx context.Context, r *report.GapperReport) error
	InsertMemoryNode(ctx context.Context, n *report.MemoryNode) error
}

// Worker claims download tasks and runs each video through the full ingest
// pass: fetch, probe, frame sampling, audio segmentation, summary node.
type Worker struct {
	Queue   Queue
	Tree    *worktree.Tree
	Fetcher Fetcher
	Sampler Sampler
	Audio   AudioPipeline
	Bin     ffmpeg.Binaries

	TargetFPS      float64
	SegmentSeconds float64
	IdleSleep      time.Duration

	Log *slog.Logger

	probeFn func(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
}

func (w *Worker) probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error) {
	if w.probeFn != nil {
		return w.probeFn(ctx, path)
	}
	return ffmpeg.Probe(ctx, w.Bin, path)
}

func (w *Worker) logger() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}

// Run drains the queue until ctx is cancelled, sleeping between polls when
// the queue is empty. A store that stays busy past its retry budget is
// fatal; everything else fails the task and keeps the loop alive.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		for {
			worked, err := w.ProcessOne(ctx)
			if err != nil {
				if errors.Is(err, store.ErrUnavailable) {
					return fmt.Errorf("ingest: store unavailable: %w", err)
				}
				if ctx.Err() != nil {
					return nil
				}
				w.logger().Error("ingest pass failed", "error", err)
			}
			if !worked {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.IdleSleep):
		}
	}
}

// ProcessOne claims and fully processes a single task. It returns whether a
// task was claimed; an error with worked=true means the task itself failed
// and was marked so.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.Queue.ClaimNextTask(ctx, store.TaskTypeDownload)
	if err != nil {
		if errors.Is(err, store.ErrNoTask) {
			return false, nil
		}
		return false, err
	}

	log := w.logger().With("task_id", task.ID, "video_id", task.VideoID)
	log.Info("claimed download task", "url", task.SourceURL)

	if err := w.processVideo(ctx, log, task); err != nil {
		var execErr *ytdlp.ExecError
		if errors.As(err, &execErr) {
			log.Error("ingest failed",
				"error", err,
				"exit_code", execErr.ExitCode,
				"stderr", execErr.Stderr)
		} else {
			log.Error("ingest failed", "error", err)
		}

		if failErr := w.Queue.FailTask(ctx, task.ID, err.Error()); failErr != nil {
			log.Error("marking task failed also failed", "error", failErr)
		}
		_ = w.Queue.UpdateVideoProgress(ctx, task.VideoID, store.VideoMeta{}, store.VideoFailed)
		return true, err
	}

	if err := w.Queue.CompleteTask(ctx, task.ID); err != nil {
		return true, fmt.Errorf("ingest: complete task %d: %w", task.ID, err)
	}
	log.Info("ingest complete")
	return true, nil
}

func (w *Worker) processVideo(ctx context.Context, log *slog.Logger, task *store.ClaimedTask) error {
	videoID := task.VideoID
	containerPath := w.Tree.ContainerPath(videoID)

	if err := w.Fetcher.Fetch(ctx, task.SourceURL, containerPath); err != nil {
		if errors.Is(err, ytdlp.ErrAuthRequired) {
			return fmt.Errorf("ingest: source requires authentication: %w", err)
		}
		return fmt.Errorf("ingest: fetch: %w", err)
	}
	log.Info("download complete", "path", containerPath)

	info, err := w.probe(ctx, containerPath)
	if err != nil {
		return fmt.Errorf("ingest: probe container: %w", err)
	}
	duration := info.Duration
	if info.FrameCount > 0 && info.FPS > 0 {
		duration = float64(info.FrameCount) / info.FPS
	}

	frameCount, err := w.sampleFrames(ctx, videoID)
	if err != nil {
		return err
	}
	log.Info("frames sampled", "count", frameCount)

	segmentCount, err := w.extractAudio(ctx, log, videoID, containerPath)
	if err != nil {
		return err
	}

	root := &report.MemoryNode{
		VideoID:   videoID,
		NodeLevel: 4,
		NodeID:    videoID + "_root",
		StartTime: 0,
		EndTime:   duration,
		Summary: fmt.Sprintf("Video with %d extracted frames and %d audio segments, %.1f seconds long",
			frameCount, segmentCount, duration),
		Importance:    1.0,
		NarrativeTags: []string{"full_video", "processed"},
	}
	if err := w.Queue.InsertMemoryNode(ctx, root); err != nil && !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("ingest: insert root node: %w", err)
	}

	meta := store.VideoMeta{
		DurationSeconds: duration,
		FPS:             info.FPS,
		Width:           info.Width,
		Height:          info.Height,
	}
	if err := w.Queue.UpdateVideoProgress(ctx, videoID, meta, store.VideoCompleted); err != nil {
		return fmt.Errorf("ingest: record progress: %w", err)
	}

	if err := w.Tree.RemoveContainer(videoID); err != nil {
		log.Warn("container cleanup failed", "error", err)
	}
	return nil
}

func (w *Worker) sampleFrames(ctx context.Context, videoID string) (int, error) {
	count, err := w.Sampler.SampleFrames(ctx, w.Tree.ContainerPath(videoID), videoID, w.TargetFPS,
		func(f SampledFrame) error {
			r := &report.GapperReport{
				VideoID:    videoID,
				Type:       report.GapperFrame,
				Timestamp:  int64(f.TimestampSeconds * 1000),
				GapperID:   fmt.Sprintf("frame_gapper_%d", f.FrameNumber),
				StartFrame: f.FrameNumber,
				EndFrame:   f.FrameNumber,
				Summary:    fmt.Sprintf("Frame at %.2fs", f.TimestampSeconds),
				Importance: report.Clamp01(f.Sharpness / 1000),
				Features: report.FrameFeatures{
					BlurVariance: f.Sharpness,
					HasContent:   f.HasContent,
				},
			}
			if err := w.Queue.InsertGapperReport(ctx, r); err != nil && !errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("ingest: insert frame report: %w", err)
			}
			return nil
		})
	if err != nil {
		return count, fmt.Errorf("ingest: sample frames: %w", err)
	}
	return count, nil
}

func (w *Worker) extractAudio(ctx context.Context, log *slog.Logger, videoID, containerPath string) (int, error) {
	wavPath, _, err := w.Audio.ExtractFullAudio(ctx, containerPath, videoID)
	if err != nil {
		if errors.Is(err, ErrNoAudio) {
			log.Info("no audio stream, skipping segments")
			return 0, nil
		}
		return 0, err
	}

	count, err := w.Audio.ExtractSegments(ctx, wavPath, videoID, w.SegmentSeconds,
		func(seg AudioSegment) error {
			start := int(seg.StartSeconds)
			r := &report.GapperReport{
				VideoID:    videoID,
				Type:       report.GapperAudio,
				Timestamp:  int64(seg.StartSeconds * 1000),
				GapperID:   fmt.Sprintf("audio_segment_%d", start),
				StartFrame: int(seg.StartSeconds * audioFrameRate),
				EndFrame:   int((seg.StartSeconds + seg.DurationSeconds) * audioFrameRate),
				Summary:    fmt.Sprintf("Audio segment %d-%ds", start, int(seg.StartSeconds+seg.DurationSeconds)),
				Importance: 0.5,
				Features: report.AudioFeatures{
					SegmentDuration: seg.DurationSeconds,
					HasAudio:        true,
					Timestamp:       seg.StartSeconds,
				},
			}
			if err := w.Queue.InsertGapperReport(ctx, r); err != nil && !errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("ingest: insert audio report: %w", err)
			}
			return nil
		})
	if err != nil {
		return count, fmt.Errorf("ingest: extract audio segments: %w", err)
	}
	log.Info("audio segmented", "segments", count)
	return count, nil
}
