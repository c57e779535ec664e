package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult contains the container metadata the pipeline cares about.
type ProbeResult struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int64 // 0 when the container does not declare it

	Duration float64 // seconds, from the format section

	AudioChannels   int
	AudioSampleRate int

	VideoStreams int
	AudioStreams int
}

// HasAudio reports whether the container carries at least one audio stream.
func (r *ProbeResult) HasAudio() bool { return r.AudioStreams > 0 }

// ffprobeOutput matches ffprobe JSON output structure.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NBFrames   string `json:"nb_frames"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Probe runs ffprobe on a file and returns metadata.
func Probe(ctx context.Context, bin Binaries, path string) (*ProbeResult, error) {
	args := []string{
		"-hide_banner",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, bin.ffprobe(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe: %w: %s", err, stderr.String())
	}

	var output ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, fmt.Errorf("ffprobe: failed to parse output: %w", err)
	}

	result := &ProbeResult{}
	if output.Format.Duration != "" {
		result.Duration, _ = strconv.ParseFloat(output.Format.Duration, 64)
	}

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			result.VideoStreams++
			// Only take first video stream metadata
			if result.VideoStreams == 1 {
				result.Width = stream.Width
				result.Height = stream.Height
				result.FPS = parseFrameRate(stream.RFrameRate)
				if stream.NBFrames != "" {
					result.FrameCount, _ = strconv.ParseInt(stream.NBFrames, 10, 64)
				}
			}
		case "audio":
			result.AudioStreams++
			if result.AudioStreams == 1 {
				result.AudioChannels = stream.Channels
				if stream.SampleRate != "" {
					result.AudioSampleRate, _ = strconv.Atoi(stream.SampleRate)
				}
			}
		}
	}

	return result, nil
}

// parseFrameRate parses ffprobe frame rate format (e.g., "30/1" or "30000/1001").
func parseFrameRate(rate string) float64 {
	var num, den int
	_, err := fmt.Sscanf(rate, "%d/%d", &num, &den)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ProbeDuration returns a file's duration in seconds using ffprobe's plain
// key-value output (format=duration), avoiding a full JSON probe.
func ProbeDuration(ctx context.Context, bin Binaries, path string) (float64, error) {
	args := []string{
		"-hide_banner",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	}

	cmd := exec.CommandContext(ctx, bin.ffprobe(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, stderr.String())
	}

	return parseDurationKV(stdout.String())
}

// parseDurationKV extracts the value from "duration=<seconds>" output.
func parseDurationKV(out string) (float64, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		value, found := strings.CutPrefix(line, "duration=")
		if !found {
			continue
		}
		d, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("ffprobe: bad duration %q: %w", value, err)
		}
		return d, nil
	}
	return 0, fmt.Errorf("ffprobe: no duration in output")
}
