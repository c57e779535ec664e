package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// CommandEstimator runs an external pose-estimator executable per frame.
// Contract: the command is invoked with the image path as its only
// argument and prints one JSON Result on stdout; "null" or empty output
// means no person was detected.
type CommandEstimator struct {
	// Path to the estimator executable.
	Path string

	execFn func(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

func NewCommandEstimator(path string) *CommandEstimator {
	return &CommandEstimator{Path: path}
}

// EstimatePose implements Estimator.
func (c *CommandEstimator) EstimatePose(ctx context.Context, imagePath string) (*Result, error) {
	stdout, stderr, err := c.exec(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("pose: estimator failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}

	out := bytes.TrimSpace(stdout)
	if len(out) == 0 || bytes.Equal(out, []byte("null")) {
		return nil, nil
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("pose: parse estimator output: %w", err)
	}
	if len(result.Body) == 0 {
		return nil, nil
	}
	return &result, nil
}

func (c *CommandEstimator) exec(ctx context.Context, args ...string) (stdout []byte, stderr []byte, err error) {
	if c.execFn != nil {
		return c.execFn(ctx, c.Path, args...)
	}

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}
