// Package ffmpeg provides a composable API for building and executing
// ffmpeg/ffprobe commands: container probing, audio transcode and slicing,
// and streaming frame decode.
package ffmpeg

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Binaries names the executables to invoke. Zero values fall back to PATH
// lookup of "ffmpeg" and "ffprobe".
type Binaries struct {
	Ffmpeg  string
	Ffprobe string
}

func (b Binaries) ffmpeg() string {
	if strings.TrimSpace(b.Ffmpeg) == "" {
		return "ffmpeg"
	}
	return b.Ffmpeg
}

func (b Binaries) ffprobe() string {
	if strings.TrimSpace(b.Ffprobe) == "" {
		return "ffprobe"
	}
	return b.Ffprobe
}

// Command represents an ffmpeg command being built.
type Command struct {
	bin       Binaries
	input     string
	output    string
	preInput  []string // args before -i (like -ss for input seeking)
	postInput []string // args after -i
}

// Option modifies a Command. Options are composable and order-independent.
type Option interface {
	Apply(cmd *Command)
}

// OptionFunc is a function that implements Option.
type OptionFunc func(cmd *Command)

// Apply implements Option.
func (f OptionFunc) Apply(cmd *Command) { f(cmd) }

// NewCommand creates a command with input/output and applies options.
func NewCommand(bin Binaries, input, output string, opts ...Option) *Command {
	cmd := &Command{
		bin:    bin,
		input:  input,
		output: output,
	}
	for _, opt := range opts {
		opt.Apply(cmd)
	}
	return cmd
}

// Build returns the complete ffmpeg argument list.
func (c *Command) Build() []string {
	args := []string{"-hide_banner", "-y"}
	args = append(args, c.preInput...)
	args = append(args, "-i", c.input)
	args = append(args, c.postInput...)
	args = append(args, c.output)
	return args
}

// Run executes the ffmpeg command.
func (c *Command) Run(ctx context.Context) error {
	return run(ctx, c.bin.ffmpeg(), c.Build())
}

// Seek positions the input before decoding (input-side -ss).
func Seek(offset time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatSeconds(offset))
	})
}

// Duration limits the output length (-t).
func Duration(d time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-t", formatSeconds(d))
	})
}

// NoVideo drops the video stream (-vn).
var NoVideo = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-vn")
})

// AudioCodec selects the audio encoder (-acodec).
func AudioCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-acodec", codec)
	})
}

// SampleRate sets the audio sample rate in Hz (-ar).
func SampleRate(hz int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-ar", fmt.Sprintf("%d", hz))
	})
}

// Channels sets the audio channel count (-ac).
func Channels(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-ac", fmt.Sprintf("%d", n))
	})
}

// VideoFilter appends a -vf filter expression.
func VideoFilter(expr string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-vf", expr)
	})
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
