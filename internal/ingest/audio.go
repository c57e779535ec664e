package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/COMMENTERTHE9/Mnemo/internal/worktree"
	"github.com/COMMENTERTHE9/Mnemo/pkg/ffmpeg"
)

// ErrNoAudio marks a container without an audio stream. Recoverable: ingest
// records zero audio segments and moves on.
var ErrNoAudio = errors.New("ingest: container has no audio stream")

// AudioInfo describes the transcoded full audio track.
type AudioInfo struct {
	DurationSeconds float64
	SampleRate      int
	Channels        int
	FrameCount      int64
}

// AudioSegment is one fixed-duration slice of the full track. Duration may
// be shorter than the nominal segment length at end of track.
type AudioSegment struct {
	StartSeconds    float64
	DurationSeconds float64
	Path            string
}

// AudioExtractor transcodes a container's audio to the pipeline's fixed
// PCM format and slices it on the frame-sampling clock.
type AudioExtractor struct {
	Bin  ffmpeg.Binaries
	Tree *worktree.Tree
}

// ExtractFullAudio transcodes the container's audio track to
// audio/full_audio.wav (PCM s16le, 16 kHz, mono). Returns ErrNoAudio when
// the container has no audio stream.
func (a *AudioExtractor) ExtractFullAudio(ctx context.Context, containerPath, videoID string) (string, *AudioInfo, error) {
	info, err := ffmpeg.Probe(ctx, a.Bin, containerPath)
	if err != nil {
		return "", nil, fmt.Errorf("ingest: probe container: %w", err)
	}
	if !info.HasAudio() {
		return "", nil, ErrNoAudio
	}

	if _, err := a.Tree.AudioDir(videoID); err != nil {
		return "", nil, err
	}

	wavPath := a.Tree.FullAudioPath(videoID)
	if err := ffmpeg.ExtractWAV(ctx, a.Bin, containerPath, wavPath); err != nil {
		return "", nil, fmt.Errorf("ingest: transcode audio: %w", err)
	}

	duration, err := ffmpeg.ProbeDuration(ctx, a.Bin, wavPath)
	if err != nil {
		return "", nil, fmt.Errorf("ingest: probe audio duration: %w", err)
	}

	return wavPath, &AudioInfo{
		DurationSeconds: duration,
		SampleRate:      ffmpeg.WAVSampleRate,
		Channels:        ffmpeg.WAVChannels,
		FrameCount:      int64(duration * float64(ffmpeg.WAVSampleRate)),
	}, nil
}

// SegmentSink receives audio segments in ascending start order.
type SegmentSink func(AudioSegment) error

// ExtractSegments slices the full track into fixed-duration segments, one
// per start offset t = 0, d, 2d, … strictly below the track's total
// duration, writing audio/segments/audio_segment_NNNNNN.wav (named by the
// integer-truncated start second). Returns the segment count.
func (a *AudioExtractor) ExtractSegments(ctx context.Context, wavPath, videoID string, segmentSeconds float64, sink SegmentSink) (int, error) {
	if segmentSeconds <= 0 {
		return 0, fmt.Errorf("ingest: segment duration must be positive")
	}

	total, err := ffmpeg.ProbeDuration(ctx, a.Bin, wavPath)
	if err != nil {
		return 0, fmt.Errorf("ingest: probe audio duration: %w", err)
	}

	if _, err := a.Tree.SegmentsDir(videoID); err != nil {
		return 0, err
	}

	count := 0
	for i := 0; ; i++ {
		start := float64(i) * segmentSeconds
		if start >= total {
			break
		}

		segPath := a.Tree.SegmentPath(videoID, int(start))
		if err := ffmpeg.SliceWAV(ctx, a.Bin, wavPath, segPath,
			secondsToDuration(start), secondsToDuration(segmentSeconds)); err != nil {
			return count, fmt.Errorf("ingest: slice segment at %.0fs: %w", start, err)
		}

		length := segmentSeconds
		if start+length > total {
			length = total - start
		}

		count++
		if err := sink(AudioSegment{
			StartSeconds:    start,
			DurationSeconds: length,
			Path:            segPath,
		}); err != nil {
			return count, err
		}
	}
	return count, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
