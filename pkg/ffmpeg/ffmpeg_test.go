package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	g := New("", "")
	if g.ffmpeg != "ffmpeg" || g.ffprobe != "ffprobe" {
		t.Fatalf("defaults = (%q, %q)", g.ffmpeg, g.ffprobe)
	}

	g = New("/opt/bin/ffmpeg", "/opt/bin/ffprobe")
	if g.ffmpeg != "/opt/bin/ffmpeg" || g.ffprobe != "/opt/bin/ffprobe" {
		t.Fatalf("explicit paths not kept: (%q, %q)", g.ffmpeg, g.ffprobe)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	g := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe")

	err := g.Run(context.Background(), "-i", "in.mp4", "out.mp4")
	if !errors.Is(err, ErrMediaIO) {
		t.Fatalf("err = %v, want ErrMediaIO", err)
	}
}

func TestProbeDuration_MissingBinary(t *testing.T) {
	g := New("/nonexistent/ffmpeg", "/nonexistent/ffprobe")

	_, err := g.ProbeDuration(context.Background(), "in.mp4")
	if !errors.Is(err, ErrMediaIO) {
		t.Fatalf("err = %v, want ErrMediaIO", err)
	}
}

func TestCheck_MissingBinary(t *testing.T) {
	g := New("/nonexistent/ffmpeg", "")
	if err := g.Check(context.Background()); !errors.Is(err, ErrMediaIO) {
		t.Fatalf("err = %v, want ErrMediaIO", err)
	}
}

func TestStderrExcerpt(t *testing.T) {
	if got := stderrExcerpt([]byte("  short error\n")); got != "short error" {
		t.Fatalf("excerpt = %q", got)
	}

	long := strings.Repeat("x", 2000) + "tail"
	got := stderrExcerpt([]byte(long))
	if len(got) != stderrExcerptLen+3 {
		t.Fatalf("excerpt length = %d, want %d", len(got), stderrExcerptLen+3)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "tail") {
		t.Fatalf("excerpt should keep the tail: %q", got[:20])
	}
}
