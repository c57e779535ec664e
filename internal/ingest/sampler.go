// Package ingest implements the download side of the pipeline: claiming
// queued tasks, fetching media, sampling frames with a sharpness score,
// extracting synchronized audio segments, and writing the per-video
// summary node.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"

	"github.com/COMMENTERTHE9/Mnemo/internal/vision"
	"github.com/COMMENTERTHE9/Mnemo/internal/worktree"
	"github.com/COMMENTERTHE9/Mnemo/pkg/ffmpeg"
)

// hasContentThreshold separates blank/blurred frames from ones worth
// looking at, in blur-variance units.
const hasContentThreshold = 100.0

// SampledFrame is one emitted frame: its source index, its position on the
// media clock, and its sharpness score.
type SampledFrame struct {
	FrameNumber      int
	TimestampSeconds float64
	Sharpness        float64
	HasContent       bool
}

// FrameSink receives frames in decode order. Returning an error aborts
// sampling.
type FrameSink func(SampledFrame) error

// FrameSampler streams every N-th decoded frame of a container to disk and
// scores it, where N is derived from the container's native frame rate and
// the desired sample rate.
type FrameSampler struct {
	Bin  ffmpeg.Binaries
	Tree *worktree.Tree
}

// SampleFrames walks the container's decoded frames, writes each sampled
// frame as frames/frame_NNNNNN.jpg (named by source index), and calls the
// sink with its sharpness. Returns the number of sampled frames. Processing
// is sequential and holds one frame in memory at a time.
func (s *FrameSampler) SampleFrames(ctx context.Context, containerPath, videoID string, targetFPS float64, sink FrameSink) (int, error) {
	info, err := ffmpeg.Probe(ctx, s.Bin, containerPath)
	if err != nil {
		return 0, fmt.Errorf("ingest: probe container: %w", err)
	}
	if info.FPS <= 0 {
		return 0, fmt.Errorf("ingest: container reports no frame rate")
	}

	interval := int(info.FPS / targetFPS)
	if interval < 1 {
		return 0, fmt.Errorf("ingest: sample rate %.2f exceeds container fps %.2f", targetFPS, info.FPS)
	}

	if _, err := s.Tree.FramesDir(videoID); err != nil {
		return 0, err
	}

	sampled := 0
	err = ffmpeg.StreamSampledFrames(ctx, s.Bin, containerPath, interval, func(ordinal int, data []byte) error {
		frameNumber := ordinal * interval

		framePath := s.Tree.FramePath(videoID, frameNumber)
		if err := os.WriteFile(framePath, data, 0o644); err != nil {
			return fmt.Errorf("ingest: write frame %d: %w", frameNumber, err)
		}

		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("ingest: decode frame %d: %w", frameNumber, err)
		}
		sharpness := vision.Sharpness(img)

		sampled++
		return sink(SampledFrame{
			FrameNumber:      frameNumber,
			TimestampSeconds: float64(frameNumber) / info.FPS,
			Sharpness:        sharpness,
			HasContent:       sharpness > hasContentThreshold,
		})
	})
	if err != nil {
		return sampled, err
	}
	return sampled, nil
}
