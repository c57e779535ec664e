package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

// jpegSOI/jpegEOI delimit one JPEG image in an MJPEG stream.
var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// FrameFunc receives one decoded frame: the ordinal of the frame within the
// sampled stream (0, 1, 2, …) and its JPEG bytes. The byte slice is only
// valid for the duration of the call. Returning an error aborts the stream.
type FrameFunc func(ordinal int, jpeg []byte) error

// StreamSampledFrames decodes a container and emits every interval-th source
// frame as a JPEG, in decode order, without buffering the video: ffmpeg
// selects the frames and writes an MJPEG stream to a pipe, which is split
// image by image on the Go side. The k-th emitted frame corresponds to
// source frame index k*interval.
func StreamSampledFrames(ctx context.Context, bin Binaries, input string, interval int, fn FrameFunc) error {
	if interval < 1 {
		return fmt.Errorf("ffmpeg: frame interval must be >= 1, got %d", interval)
	}

	args := []string{
		"-hide_banner",
		"-v", "error",
		"-i", input,
		"-vf", fmt.Sprintf("select=not(mod(n\\,%d))", interval),
		"-vsync", "0",
		"-q:v", "2",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, bin.ffmpeg(), args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg: start: %w", err)
	}

	walkErr := walkJPEGStream(stdout, fn)
	if walkErr != nil {
		// Drain and kill so Wait cannot block on a full pipe.
		_ = cmd.Process.Kill()
	}
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if walkErr != nil {
		return walkErr
	}
	if waitErr != nil {
		return &Error{Args: args, Stderr: stderr.String(), Err: waitErr}
	}
	return nil
}

// walkJPEGStream splits a concatenated JPEG (MJPEG) byte stream and calls
// fn once per image. One image is held in memory at a time.
func walkJPEGStream(r io.Reader, fn FrameFunc) error {
	br := bufio.NewReaderSize(r, 1<<16)
	var frame bytes.Buffer
	ordinal := 0

	for {
		if err := seekMarker(br, jpegSOI, nil); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		frame.Reset()
		frame.Write(jpegSOI)
		if err := seekMarker(br, jpegEOI, &frame); err != nil {
			if err == io.EOF {
				return fmt.Errorf("ffmpeg: truncated jpeg in stream")
			}
			return err
		}
		frame.Write(jpegEOI)

		if err := fn(ordinal, frame.Bytes()); err != nil {
			return err
		}
		ordinal++
	}
}

// seekMarker advances the reader just past the next occurrence of a
// two-byte marker. Bytes before the marker are appended to sink when it is
// non-nil.
func seekMarker(br *bufio.Reader, marker []byte, sink *bytes.Buffer) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if b != marker[0] {
			if sink != nil {
				sink.WriteByte(b)
			}
			continue
		}

		next, err := br.ReadByte()
		if err != nil {
			return err
		}
		if next == marker[1] {
			return nil
		}
		if sink != nil {
			sink.WriteByte(b)
		}
		// The second byte may itself start the marker.
		if err := br.UnreadByte(); err != nil {
			return err
		}
	}
}
