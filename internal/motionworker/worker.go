// Package motionworker implements the second pipeline pass: it scans
// completed videos that lack motion coverage, runs pose estimation over
// their sampled frames, and writes per-frame motion reports plus
// continuous-motion segment reports.
package motionworker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/COMMENTERTHE9/Mnemo/internal/motion"
	"github.com/COMMENTERTHE9/Mnemo/internal/pose"
	"github.com/COMMENTERTHE9/Mnemo/internal/report"
	"github.com/COMMENTERTHE9/Mnemo/internal/store"
	"github.com/COMMENTERTHE9/Mnemo/internal/worktree"
)

// frameIntervalMillis is the nominal per-frame spacing on the report clock,
// assuming a 30 fps source.
const frameIntervalMillis = 33.33

// Reports is the store surface the motion worker drives.
type Reports interface {
	NextVideoNeedingMotion(ctx context.Context) (string, error)
	InsertGapperReport(ctx context.Context, r *report.GapperReport) error
}

// Worker finds uncovered videos and runs the motion pass over each.
type Worker struct {
	Reports   Reports
	Tree      *worktree.Tree
	Estimator pose.Estimator

	IdleSleep time.Duration

	Log *slog.Logger
}

func (w *Worker) logger() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}

// Run processes videos until ctx is cancelled, sleeping between polls when
// no video needs motion analysis. A store that stays busy past its retry
// budget is fatal; other per-video failures are logged and the loop moves
// on after the idle sleep.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		for {
			worked, err := w.ProcessOne(ctx)
			if err != nil {
				if errors.Is(err, store.ErrUnavailable) {
					return fmt.Errorf("motionworker: store unavailable: %w", err)
				}
				if ctx.Err() != nil {
					return nil
				}
				w.logger().Error("motion pass failed", "error", err)
				break
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

// ProcessOne analyzes a single uncovered video end to end. Returns whether
// a video was found.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	videoID, err := w.Reports.NextVideoNeedingMotion(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoTask) {
			return false, nil
		}
		return false, err
	}

	log := w.logger().With("video_id", videoID)
	log.Info("starting motion analysis")

	frames, err := w.Tree.ListFrames(videoID)
	if err != nil {
		return true, fmt.Errorf("motionworker: list frames for %s: %w", videoID, err)
	}
	// A frameless video would insert nothing and be selected again right
	// away; surfacing it as an error drops the loop to its idle cadence.
	if len(frames) == 0 {
		return true, fmt.Errorf("motionworker: no sampled frames for %s", videoID)
	}

	sequence, err := w.analyzeFrames(ctx, log, videoID, frames)
	if err != nil {
		return true, err
	}

	segments := motion.Segmentize(sequence)
	for _, seg := range segments {
		if err := w.insertSegmentReport(ctx, videoID, seg); err != nil {
			return true, err
		}
	}

	log.Info("motion analysis complete", "frames", len(frames), "segments", len(segments))
	return true, nil
}

// analyzeFrames runs pose estimation over each frame in index order and
// writes the per-frame motion report. A failed estimator invocation is
// recorded as a no-person frame rather than aborting the video.
func (w *Worker) analyzeFrames(ctx context.Context, log *slog.Logger, videoID string, frames []worktree.Frame) ([]motion.FrameMotion, error) {
	analyzer := motion.NewAnalyzer()
	sequence := make([]motion.FrameMotion, 0, len(frames))

	for _, frame := range frames {
		if ctx.Err() != nil {
			return sequence, ctx.Err()
		}

		p, err := w.Estimator.EstimatePose(ctx, frame.Path)
		if err != nil {
			log.Warn("pose estimation failed", "frame", frame.Number, "error", err)
			p = nil
		}

		feats := analyzer.Observe(p)
		sequence = append(sequence, motion.FrameMotion{FrameNumber: frame.Number, Features: feats})

		r := &report.GapperReport{
			VideoID:    videoID,
			Type:       report.GapperMotion,
			Timestamp:  int64(float64(frame.Number) * frameIntervalMillis),
			GapperID:   fmt.Sprintf("motion_%d", frame.Number),
			StartFrame: frame.Number,
			EndFrame:   frame.Number,
			Summary:    motion.FrameSummary(p, feats),
			Importance: motion.FrameImportance(feats),
			Features: motion.FrameFeatures{
				HasPose:        p != nil,
				PoseData:       p,
				MotionFeatures: feats,
			},
		}
		if err := w.Reports.InsertGapperReport(ctx, r); err != nil && !errors.Is(err, store.ErrConflict) {
			return sequence, fmt.Errorf("motionworker: insert motion report: %w", err)
		}
	}
	return sequence, nil
}

func (w *Worker) insertSegmentReport(ctx context.Context, videoID string, seg motion.Segment) error {
	r := &report.GapperReport{
		VideoID:    videoID,
		Type:       report.GapperMotionSegment,
		Timestamp:  time.Now().UnixMilli(),
		GapperID:   fmt.Sprintf("motion_seg_%d", seg.StartFrame),
		StartFrame: seg.StartFrame,
		EndFrame:   seg.EndFrame,
		Summary:    seg.Summary(),
		Importance: 0.8,
		Features:   motion.SegmentFeatures{Actions: seg.Actions},
	}
	if err := w.Reports.InsertGapperReport(ctx, r); err != nil && !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("motionworker: insert segment report: %w", err)
	}
	return nil
}
