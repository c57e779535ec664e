package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func active(frame int, movement float64, hints ...string) FrameMotion {
	return FrameMotion{
		FrameNumber: frame,
		Features: &Features{
			MotionDetected: true,
			TotalMovement:  movement,
			ActionHints:    hints,
		},
	}
}

func idle(frame int) FrameMotion {
	return FrameMotion{
		FrameNumber: frame,
		Features:    &Features{MotionDetected: true, TotalMovement: 0.001},
	}
}

func TestSegmentize_ContinuousRun(t *testing.T) {
	var seq []FrameMotion
	seq = append(seq, FrameMotion{FrameNumber: 0}) // first frame, no features
	for f := 30; f <= 120; f += 30 {
		seq = append(seq, idle(f))
	}
	// Frames 150..360 move, then quiet again.
	for f := 150; f <= 360; f += 30 {
		seq = append(seq, active(f, 0.05))
	}
	seq = append(seq, idle(390))

	segments := Segmentize(seq)
	require.Len(t, segments, 1)
	assert.Equal(t, 150, segments[0].StartFrame)
	assert.Equal(t, 360, segments[0].EndFrame)
	assert.Equal(t, 8, segments[0].FrameCount)
}

func TestSegmentize_ShortRunsDropped(t *testing.T) {
	// Exactly three active frames: below the emission bound.
	seq := []FrameMotion{
		idle(0),
		active(30, 0.05),
		active(60, 0.05),
		active(90, 0.05),
		idle(120),
	}
	assert.Empty(t, Segmentize(seq))

	// One more active frame and the run is emitted.
	seq = []FrameMotion{
		idle(0),
		active(30, 0.05),
		active(60, 0.05),
		active(90, 0.05),
		active(120, 0.05),
		idle(150),
	}
	segments := Segmentize(seq)
	require.Len(t, segments, 1)
	assert.Equal(t, 4, segments[0].FrameCount)
}

func TestSegmentize_SingleQuietFrameSplits(t *testing.T) {
	var seq []FrameMotion
	for f := 0; f < 4*30; f += 30 {
		seq = append(seq, active(f, 0.05))
	}
	seq = append(seq, idle(120))
	for f := 150; f < 150+4*30; f += 30 {
		seq = append(seq, active(f, 0.05))
	}

	segments := Segmentize(seq)
	require.Len(t, segments, 2)
	assert.Equal(t, 0, segments[0].StartFrame)
	assert.Equal(t, 90, segments[0].EndFrame)
	assert.Equal(t, 150, segments[1].StartFrame)
	assert.Equal(t, 240, segments[1].EndFrame)
}

func TestSegmentize_TrailingRunIsFlushed(t *testing.T) {
	var seq []FrameMotion
	for f := 0; f < 5*30; f += 30 {
		seq = append(seq, active(f, 0.05))
	}

	segments := Segmentize(seq)
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].StartFrame)
	assert.Equal(t, 120, segments[0].EndFrame)
}

func TestSegmentize_ThresholdIsStrict(t *testing.T) {
	var seq []FrameMotion
	for f := 0; f < 6*30; f += 30 {
		seq = append(seq, active(f, segmentThreshold))
	}
	assert.Empty(t, Segmentize(seq))
}

func TestSegmentize_DominantAction(t *testing.T) {
	var seq []FrameMotion
	for i := 0; i < 7; i++ {
		seq = append(seq, active(i*30, 0.05, ActionWalkingRunning))
	}
	for i := 7; i < 10; i++ {
		seq = append(seq, active(i*30, 0.05, ActionPossibleJump))
	}

	segments := Segmentize(seq)
	require.Len(t, segments, 1)
	assert.Equal(t, ActionWalkingRunning, segments[0].Dominant)
	assert.Equal(t, []string{ActionWalkingRunning, ActionPossibleJump}, segments[0].Actions)
	assert.Equal(t, "Motion: walking_or_running (10 frames)", segments[0].Summary())
}

func TestSegmentize_DominantTieBreaksFirstSeen(t *testing.T) {
	seq := []FrameMotion{
		active(0, 0.05, ActionPossibleJump),
		active(30, 0.05, ActionWalkingRunning),
		active(60, 0.05, ActionWalkingRunning),
		active(90, 0.05, ActionPossibleJump),
	}

	segments := Segmentize(seq)
	require.Len(t, segments, 1)
	assert.Equal(t, ActionPossibleJump, segments[0].Dominant)
}

func TestSegmentSummary_NoActions(t *testing.T) {
	seg := Segment{FrameCount: 6}
	assert.Equal(t, "Motion segment: 6 frames of movement", seg.Summary())
}
