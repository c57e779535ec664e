package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrAuthRequired indicates the source demands a signed-in session. The
// stderr that triggered it travels alongside in the wrapping ExecError.
var ErrAuthRequired = errors.New("ytdlp: authentication required")

// signInPatterns are stderr fragments that mean the extractor wants a
// logged-in session rather than having hit a transient failure.
var signInPatterns = []string{
	"Sign in to confirm",
	"This video is only available for registered users",
	"Please sign in",
}

// Fetch downloads url to outputPath as an mp4 container, preferring the
// single best mp4 stream and falling back to the overall best. Playlist
// expansion is disabled. There is no retry here; the caller decides.
func (c *Client) Fetch(ctx context.Context, url, outputPath string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("ytdlp: url is required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return fmt.Errorf("ytdlp: output path is required")
	}

	args := []string{
		"-f", "best[ext=mp4]/best",
		"-o", outputPath,
		"--no-playlist",
		url,
	}

	stdout, stderr, err := c.exec(ctx, args...)
	if err != nil {
		wrapped := wrapExecError(c.PathOrDefault(), args, stdout, stderr, err)
		if isAuthFailure(string(stderr)) {
			return fmt.Errorf("%w: %s", ErrAuthRequired, wrapped.(*ExecError).Stderr)
		}
		return wrapped
	}
	return nil
}

func isAuthFailure(stderr string) bool {
	for _, pattern := range signInPatterns {
		if strings.Contains(stderr, pattern) {
			return true
		}
	}
	return false
}
