package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrMediaIO marks failures of the external media tools: binary missing,
// non-zero exit, or unparseable probe output.
var ErrMediaIO = errors.New("media tool error")

const stderrExcerptLen = 500

// Gateway wraps all ffmpeg/ffprobe subprocess invocations. Invocations are
// synchronous; stderr is captured for diagnostics and stdout is only
// interpreted when probing.
type Gateway struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Gateway {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Gateway{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Check verifies the ffmpeg binary is reachable.
func (g *Gateway) Check(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, g.ffmpeg, "-version")
	if err := cmd.Run(); err != nil {
		return errors.Join(ErrMediaIO, fmt.Errorf("ffmpeg is required but not available: %w", err))
	}
	return nil
}

// Run invokes ffmpeg with the given arguments. A partially written output
// file is not cleaned up here; callers must not treat it as valid on error.
func (g *Gateway) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, g.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Join(ErrMediaIO, fmt.Errorf("ffmpeg %s: %w: %s",
			strings.Join(args, " "), err, stderrExcerpt(stderr.Bytes())))
	}
	return nil
}

// ProbeDuration returns the container duration of the file at path in seconds.
func (g *Gateway) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, g.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, errors.Join(ErrMediaIO, fmt.Errorf("ffprobe %s: %w: %s",
			path, err, stderrExcerpt(stderr.Bytes())))
	}

	s := strings.TrimSpace(stdout.String())
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Join(ErrMediaIO, fmt.Errorf("parse duration %q: %w", s, err))
	}
	return sec, nil
}

func stderrExcerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > stderrExcerptLen {
		s = "..." + s[len(s)-stderrExcerptLen:]
	}
	return s
}
