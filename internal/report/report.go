// Package report defines the time-indexed records the pipeline persists:
// gapper reports (per-frame, per-segment signal extractions) and memory
// nodes (hierarchical summaries). Reports are append-only; rows are never
// mutated after insert.
package report

// GapperType discriminates the shape of a report's feature blob.
type GapperType string

const (
	GapperFrame         GapperType = "frame"
	GapperAudio         GapperType = "audio"
	GapperMotion        GapperType = "motion"
	GapperMotionSegment GapperType = "motion_segment"
)

// GapperReport is one signal extractor's output for a frame, segment, or
// span of a video. (VideoID, GapperID) is unique per video.
type GapperReport struct {
	VideoID    string
	Type       GapperType
	Timestamp  int64 // milliseconds
	GapperID   string
	StartFrame int
	EndFrame   int
	Summary    string
	Importance float64
	// Features is marshaled to JSON on insert. Producers use the typed
	// shapes below (or their own) rather than free-form maps.
	Features any
}

// FrameFeatures is the feature blob for frame-type reports.
type FrameFeatures struct {
	BlurVariance float64 `json:"blur_variance"`
	HasContent   bool    `json:"has_content"`
}

// AudioFeatures is the feature blob for audio-segment reports.
type AudioFeatures struct {
	SegmentDuration float64 `json:"segment_duration"`
	HasAudio        bool    `json:"has_audio"`
	Timestamp       float64 `json:"timestamp"`
}

// MemoryNode is one node of the per-video summary hierarchy. Level 0 is the
// finest granularity; level 4 summarizes the whole video. Only the level-4
// root is produced by ingest; lower levels belong to downstream consumers.
type MemoryNode struct {
	VideoID       string
	NodeLevel     int
	NodeID        string
	ParentID      *string
	StartTime     float64 // seconds
	EndTime       float64 // seconds
	Summary       string
	Importance    float64
	NarrativeTags []string
}

// Clamp01 bounds an importance score to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
