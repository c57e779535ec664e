package motion

import "fmt"

// minSegmentFrames is the exclusive lower bound on active frames: runs of
// 3 or fewer are dropped silently.
const minSegmentFrames = 3

// FrameMotion pairs a source frame index with its observed motion.
// Features is nil for the first frame of a sequence.
type FrameMotion struct {
	FrameNumber int
	Features    *Features
}

// Segment is one run of contiguous active frames.
type Segment struct {
	StartFrame int
	EndFrame   int
	FrameCount int      // number of active frames in the run
	Actions    []string // deduplicated hints, first-seen order
	Dominant   string   // most frequent hint, "" when no hints fired
}

// SegmentFeatures is the feature blob stored with motion_segment reports.
type SegmentFeatures struct {
	Actions []string `json:"actions"`
}

// Segmentize walks a frame sequence in order and extracts continuous-motion
// segments. A frame is active iff its total movement strictly exceeds the
// segmentation threshold; a single inactive frame closes the open segment.
// Runs of more than minSegmentFrames active frames are emitted, including a
// run still open at end of sequence.
func Segmentize(seq []FrameMotion) []Segment {
	var segments []Segment
	var open []FrameMotion

	flush := func() {
		if len(open) > minSegmentFrames {
			segments = append(segments, buildSegment(open))
		}
		open = nil
	}

	for _, fm := range seq {
		if fm.Features != nil && fm.Features.TotalMovement > segmentThreshold {
			open = append(open, fm)
		} else {
			flush()
		}
	}
	flush()

	return segments
}

func buildSegment(frames []FrameMotion) Segment {
	seg := Segment{
		StartFrame: frames[0].FrameNumber,
		EndFrame:   frames[len(frames)-1].FrameNumber,
		FrameCount: len(frames),
	}

	// Count hints across the run; first-seen order is both the Actions
	// order and the tie-break for the dominant hint.
	counts := make(map[string]int)
	for _, fm := range frames {
		if fm.Features == nil {
			continue
		}
		for _, hint := range fm.Features.ActionHints {
			if counts[hint] == 0 {
				seg.Actions = append(seg.Actions, hint)
			}
			counts[hint]++
		}
	}

	best := 0
	for _, hint := range seg.Actions {
		if counts[hint] > best {
			best = counts[hint]
			seg.Dominant = hint
		}
	}

	return seg
}

// Summary renders the segment report summary.
func (s Segment) Summary() string {
	if s.Dominant != "" {
		return fmt.Sprintf("Motion: %s (%d frames)", s.Dominant, s.FrameCount)
	}
	return fmt.Sprintf("Motion segment: %d frames of movement", s.FrameCount)
}
