package worktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	tree := New("/work")

	assert.Equal(t, "/work/vid1.mp4", tree.ContainerPath("vid1"))
	assert.Equal(t, filepath.Join("/work", "vid1", "frames", "frame_000030.jpg"), tree.FramePath("vid1", 30))
	assert.Equal(t, filepath.Join("/work", "vid1", "audio", "full_audio.wav"), tree.FullAudioPath("vid1"))
	assert.Equal(t, filepath.Join("/work", "vid1", "audio", "segments", "audio_segment_000007.wav"), tree.SegmentPath("vid1", 7))
}

func TestFrameName_RoundTrip(t *testing.T) {
	tests := []struct {
		number int
		name   string
	}{
		{0, "frame_000000.jpg"},
		{30, "frame_000030.jpg"},
		{123456, "frame_123456.jpg"},
		{1234567, "frame_1234567.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, FrameName(tt.number))
		n, err := ParseFrameNumber(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.number, n)
	}
}

func TestParseFrameNumber_Rejects(t *testing.T) {
	for _, name := range []string{"thumb_000001.jpg", "frame_abc.jpg", "frame_.jpg", "full_audio.wav"} {
		_, err := ParseFrameNumber(name)
		assert.Error(t, err, name)
	}
}

func TestDirsAreCreated(t *testing.T) {
	tree := New(t.TempDir())

	for _, mk := range []func(string) (string, error){
		tree.VideoDir, tree.FramesDir, tree.AudioDir, tree.SegmentsDir,
	} {
		dir, err := mk("vid1")
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		// Creation is idempotent.
		_, err = mk("vid1")
		require.NoError(t, err)
	}
}

func TestListFrames_SortedByIndex(t *testing.T) {
	tree := New(t.TempDir())
	dir, err := tree.FramesDir("vid1")
	require.NoError(t, err)

	// Written out of order, plus a file that is not a frame.
	for _, name := range []string{"frame_000090.jpg", "frame_000000.jpg", "frame_000030.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	frames, err := tree.ListFrames("vid1")
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, []int{0, 30, 90}, []int{frames[0].Number, frames[1].Number, frames[2].Number})
	assert.Equal(t, filepath.Join(dir, "frame_000030.jpg"), frames[1].Path)
}

func TestRemoveContainer_LeavesFrames(t *testing.T) {
	tree := New(t.TempDir())
	dir, err := tree.FramesDir("vid1")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tree.ContainerPath("vid1"), []byte("mp4"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_000000.jpg"), []byte("jpg"), 0o644))

	require.NoError(t, tree.RemoveContainer("vid1"))

	_, err = os.Stat(tree.ContainerPath("vid1"))
	assert.True(t, os.IsNotExist(err))
	frames, err := tree.ListFrames("vid1")
	require.NoError(t, err)
	assert.Len(t, frames, 1)

	// Removing an already-removed container is fine.
	assert.NoError(t, tree.RemoveContainer("vid1"))
}

func TestRemoveVideo(t *testing.T) {
	tree := New(t.TempDir())
	_, err := tree.FramesDir("vid1")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tree.ContainerPath("vid1"), []byte("mp4"), 0o644))

	require.NoError(t, tree.RemoveVideo("vid1"))

	_, err = os.Stat(tree.ContainerPath("vid1"))
	assert.True(t, os.IsNotExist(err))
	_, err = tree.ListFrames("vid1")
	assert.Error(t, err)
}
