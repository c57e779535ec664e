package ffmpeg

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBuild(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		output   string
		opts     []Option
		wantArgs []string
	}{
		{
			name:   "wav extraction",
			input:  "input.mp4",
			output: "out.wav",
			opts: []Option{
				NoVideo,
				AudioCodec("pcm_s16le"),
				SampleRate(16000),
				Channels(1),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "input.mp4",
				"-vn",
				"-acodec", "pcm_s16le",
				"-ar", "16000",
				"-ac", "1",
				"out.wav",
			},
		},
		{
			name:   "seek and duration",
			input:  "full.wav",
			output: "slice.wav",
			opts: []Option{
				Seek(10 * time.Second),
				Duration(1 * time.Second),
				AudioCodec("pcm_s16le"),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-ss", "10.000",
				"-i", "full.wav",
				"-t", "1.000",
				"-acodec", "pcm_s16le",
				"slice.wav",
			},
		},
		{
			name:   "video filter",
			input:  "input.mp4",
			output: "out.mp4",
			opts:   []Option{VideoFilter("select=not(mod(n\\,30))")},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "input.mp4",
				"-vf", "select=not(mod(n\\,30))",
				"out.mp4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCommand(Binaries{}, tt.input, tt.output, tt.opts...)
			assert.Equal(t, tt.wantArgs, cmd.Build())
		})
	}
}

func TestFractionalSeek(t *testing.T) {
	cmd := NewCommand(Binaries{}, "in.wav", "out.wav", Seek(1500*time.Millisecond))
	assert.Contains(t, cmd.Build(), "1.500")
}

func TestBinariesDefaults(t *testing.T) {
	var b Binaries
	assert.Equal(t, "ffmpeg", b.ffmpeg())
	assert.Equal(t, "ffprobe", b.ffprobe())

	b = Binaries{Ffmpeg: "/opt/ffmpeg", Ffprobe: "/opt/ffprobe"}
	assert.Equal(t, "/opt/ffmpeg", b.ffmpeg())
	assert.Equal(t, "/opt/ffprobe", b.ffprobe())
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 30.0, parseFrameRate("30/1"), 0.001)
	assert.InDelta(t, 29.97, parseFrameRate("30000/1001"), 0.001)
	assert.Equal(t, 0.0, parseFrameRate("0/0"))
	assert.Equal(t, 0.0, parseFrameRate("garbage"))
}

func TestParseDurationKV(t *testing.T) {
	d, err := parseDurationKV("duration=12.480000\n")
	require.NoError(t, err)
	assert.InDelta(t, 12.48, d, 0.0001)

	_, err = parseDurationKV("")
	assert.Error(t, err)

	_, err = parseDurationKV("duration=N/A\n")
	assert.Error(t, err)
}

func TestErrorMessageKeepsStderrTail(t *testing.T) {
	e := &Error{
		Args:   []string{"-i", "in.mp4"},
		Stderr: "line1\nline2\nline3\nline4\nline5",
		Err:    assert.AnError,
	}
	msg := e.Error()
	assert.Contains(t, msg, "line3")
	assert.Contains(t, msg, "line5")
	assert.NotContains(t, msg, "line1")
	assert.Equal(t, "line1\nline2\nline3\nline4\nline5", e.FullStderr())
}

// jpegFixture builds a fake JPEG payload: SOI, body, EOI. The body may
// contain stray 0xFF bytes that the splitter must not treat as markers.
func jpegFixture(body []byte) []byte {
	var b bytes.Buffer
	b.Write(jpegSOI)
	b.Write(body)
	b.Write(jpegEOI)
	return b.Bytes()
}

func TestWalkJPEGStream(t *testing.T) {
	frames := [][]byte{
		jpegFixture([]byte{0x01, 0x02, 0x03}),
		jpegFixture([]byte{0xFF, 0x00, 0xFF, 0xFF, 0x00}),
		jpegFixture(bytes.Repeat([]byte{0xAB}, 70000)),
	}

	var stream bytes.Buffer
	for _, f := range frames {
		stream.Write(f)
	}

	var got [][]byte
	err := walkJPEGStream(&stream, func(ordinal int, jpeg []byte) error {
		require.Equal(t, len(got), ordinal)
		got = append(got, append([]byte(nil), jpeg...))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, len(frames))
	for i := range frames {
		assert.Equal(t, frames[i], got[i])
	}
}

func TestWalkJPEGStream_TruncatedFrame(t *testing.T) {
	stream := bytes.NewBuffer(jpegFixture([]byte{0x01}))
	stream.Write(jpegSOI)
	stream.Write([]byte{0x02, 0x03}) // no EOI

	count := 0
	err := walkJPEGStream(stream, func(int, []byte) error {
		count++
		return nil
	})
	assert.Error(t, err)
	assert.Equal(t, 1, count)
}

func TestWalkJPEGStream_Empty(t *testing.T) {
	err := walkJPEGStream(bytes.NewReader(nil), func(int, []byte) error {
		t.Fatal("no frames expected")
		return nil
	})
	assert.NoError(t, err)
}

func TestStreamSampledFrames_RejectsBadInterval(t *testing.T) {
	err := StreamSampledFrames(context.Background(), Binaries{}, "in.mp4", 0, func(int, []byte) error { return nil })
	assert.Error(t, err)
}
