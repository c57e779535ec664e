package ffmpeg

import (
	"context"
	"time"
)

// WAV transcode target: PCM signed 16-bit little-endian, 16 kHz, mono.
// Fixed so every downstream consumer sees one audio format.
const (
	WAVCodec      = "pcm_s16le"
	WAVSampleRate = 16000
	WAVChannels   = 1
)

// ExtractWAV transcodes a container's audio track to the fixed PCM format,
// overwriting any existing output. Containers without an audio stream make
// ffmpeg fail; callers probe first when "no audio" is an expected case.
func ExtractWAV(ctx context.Context, bin Binaries, input, output string) error {
	return NewCommand(bin, input, output,
		NoVideo,
		AudioCodec(WAVCodec),
		SampleRate(WAVSampleRate),
		Channels(WAVChannels),
	).Run(ctx)
}

// SliceWAV writes the [start, start+length) slice of a WAV file, re-encoded
// in the same PCM format. The slice is truncated at end of input, so the
// last segment of a file may come out shorter than requested.
func SliceWAV(ctx context.Context, bin Binaries, input, output string, start, length time.Duration) error {
	return NewCommand(bin, input, output,
		Seek(start),
		Duration(length),
		AudioCodec(WAVCodec),
	).Run(ctx)
}
