// Package worktree manages the per-video scratch directory layout:
//
//	<root>/<video_id>.mp4              downloaded container (deleted after ingest)
//	<root>/<video_id>/frames/          frame_NNNNNN.jpg, source frame indices
//	<root>/<video_id>/audio/           full_audio.wav
//	<root>/<video_id>/audio/segments/  audio_segment_NNNNNN.wav, start-second offsets
//
// Frame files are zero-padded so lexicographic and numeric order agree.
package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	framePrefix   = "frame_"
	segmentPrefix = "audio_segment_"
)

// Tree hands out paths under a single scratch root. Directory creation is
// race-tolerant; two workers touching the same video will not trip on it.
type Tree struct {
	root string
}

func New(root string) *Tree {
	return &Tree{root: root}
}

// Root returns the scratch root directory.
func (t *Tree) Root() string { return t.root }

// ContainerPath is where the downloaded media file for a video lives.
func (t *Tree) ContainerPath(videoID string) string {
	return filepath.Join(t.root, videoID+".mp4")
}

// VideoDir returns (and creates) the per-video scratch directory.
func (t *Tree) VideoDir(videoID string) (string, error) {
	dir := filepath.Join(t.root, videoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("worktree: create video dir: %w", err)
	}
	return dir, nil
}

// FramesDir returns (and creates) the frames directory for a video.
func (t *Tree) FramesDir(videoID string) (string, error) {
	dir := filepath.Join(t.root, videoID, "frames")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("worktree: create frames dir: %w", err)
	}
	return dir, nil
}

// AudioDir returns (and creates) the audio directory for a video.
func (t *Tree) AudioDir(videoID string) (string, error) {
	dir := filepath.Join(t.root, videoID, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("worktree: create audio dir: %w", err)
	}
	return dir, nil
}

// SegmentsDir returns (and creates) the audio segments directory.
func (t *Tree) SegmentsDir(videoID string) (string, error) {
	dir := filepath.Join(t.root, videoID, "audio", "segments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("worktree: create segments dir: %w", err)
	}
	return dir, nil
}

// FramePath names a frame file by its source frame index.
func (t *Tree) FramePath(videoID string, frameNumber int) string {
	return filepath.Join(t.root, videoID, "frames", FrameName(frameNumber))
}

// FullAudioPath is the transcoded full audio track.
func (t *Tree) FullAudioPath(videoID string) string {
	return filepath.Join(t.root, videoID, "audio", "full_audio.wav")
}

// SegmentPath names an audio segment by its integer-truncated start second.
func (t *Tree) SegmentPath(videoID string, startSecond int) string {
	return filepath.Join(t.root, videoID, "audio", "segments",
		fmt.Sprintf("%s%06d.wav", segmentPrefix, startSecond))
}

// RemoveContainer deletes only the downloaded container, leaving extracted
// frames and audio in place for downstream passes.
func (t *Tree) RemoveContainer(videoID string) error {
	if err := os.Remove(t.ContainerPath(videoID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("worktree: remove container: %w", err)
	}
	return nil
}

// RemoveVideo deletes a video's entire scratch directory and container.
func (t *Tree) RemoveVideo(videoID string) error {
	if err := os.RemoveAll(filepath.Join(t.root, videoID)); err != nil {
		return fmt.Errorf("worktree: remove video dir: %w", err)
	}
	if err := os.Remove(t.ContainerPath(videoID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("worktree: remove container: %w", err)
	}
	return nil
}

// FrameName formats the file name for a source frame index.
func FrameName(frameNumber int) string {
	return fmt.Sprintf("%s%06d.jpg", framePrefix, frameNumber)
}

// ParseFrameNumber recovers the source frame index from a frame file name.
func ParseFrameNumber(name string) (int, error) {
	base := strings.TrimSuffix(filepath.Base(name), ".jpg")
	if !strings.HasPrefix(base, framePrefix) {
		return 0, fmt.Errorf("worktree: not a frame file: %s", name)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(base, framePrefix))
	if err != nil {
		return 0, fmt.Errorf("worktree: bad frame index in %s: %w", name, err)
	}
	return n, nil
}

// Frame is one on-disk frame file with its parsed source index.
type Frame struct {
	Number int
	Path   string
}

// ListFrames enumerates a video's frame files sorted by source frame index.
// Files that do not parse as frames are skipped.
func (t *Tree) ListFrames(videoID string) ([]Frame, error) {
	dir := filepath.Join(t.root, videoID, "frames")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("worktree: read frames dir: %w", err)
	}

	frames := make([]Frame, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, err := ParseFrameNumber(e.Name())
		if err != nil {
			continue
		}
		frames = append(frames, Frame{Number: n, Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Number < frames[j].Number })
	return frames, nil
}
