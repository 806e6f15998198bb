package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeGateway records invocations and emulates the tool writing its output
// file (the path following -y).
type fakeGateway struct {
	mu        sync.Mutex
	runs      [][]string
	probes    []string
	duration  float64
	durations map[string]float64
	failWhen  func(args []string) bool
}

func (f *fakeGateway) ProbeDuration(_ context.Context, path string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, path)
	if d, ok := f.durations[path]; ok {
		return d, nil
	}
	return f.duration, nil
}

func (f *fakeGateway) Run(_ context.Context, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, args)
	if f.failWhen != nil && f.failWhen(args) {
		return errors.New("simulated tool failure")
	}
	out := args[len(args)-1]
	return os.WriteFile(out, []byte("media"), 0o644)
}

func (f *fakeGateway) invocations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs) + len(f.probes)
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newTestAssets(t *testing.T, gw *fakeGateway) *EffectAssets {
	t.Helper()
	return NewEffectAssets(gw, DefaultCatalog(), t.TempDir(), t.TempDir())
}

func TestClampFadeOut(t *testing.T) {
	cases := []struct {
		target, fadeOut       float64
		wantStart, wantLength float64
	}{
		{5, 2, 3, 2},
		{2, 2, 0, 2},
		{1.5, 2, 0, 1.5},
		{0.5, 2, 0, 0.5},
		{10, 1, 9, 1},
	}
	for _, tc := range cases {
		start, length := clampFadeOut(tc.target, tc.fadeOut)
		if start != tc.wantStart || length != tc.wantLength {
			t.Fatalf("clampFadeOut(%g, %g) = (%g, %g), want (%g, %g)",
				tc.target, tc.fadeOut, start, length, tc.wantStart, tc.wantLength)
		}
		if start < 0 {
			t.Fatalf("clampFadeOut(%g, %g) produced negative offset", tc.target, tc.fadeOut)
		}
	}
}

func TestEnsureSourceAsset_SynthesizesOnce(t *testing.T) {
	gw := &fakeGateway{}
	assets := newTestAssets(t, gw)
	ctx := context.Background()

	first, err := assets.EnsureSourceAsset(ctx, "dramatic")
	if err != nil {
		t.Fatalf("EnsureSourceAsset: %v", err)
	}
	if len(gw.runs) != 1 {
		t.Fatalf("expected one synthesis invocation, got %d", len(gw.runs))
	}
	if got := argValue(gw.runs[0], "-i"); got != "sine=frequency=200:duration=10" {
		t.Fatalf("synthesis input = %q", got)
	}
	if got := argValue(gw.runs[0], "-af"); !strings.Contains(got, "aecho") || !strings.Contains(got, "areverse") {
		t.Fatalf("dramatic filter chain = %q", got)
	}

	second, err := assets.EnsureSourceAsset(ctx, "dramatic")
	if err != nil {
		t.Fatalf("EnsureSourceAsset (second): %v", err)
	}
	if second != first {
		t.Fatalf("paths differ across calls: %q vs %q", first, second)
	}
	if len(gw.runs) != 1 {
		t.Fatalf("second call re-synthesized: %d invocations", len(gw.runs))
	}
}

func TestEnsureSourceAsset_UnknownIdUsesPlainTone(t *testing.T) {
	gw := &fakeGateway{}
	assets := newTestAssets(t, gw)

	if _, err := assets.EnsureSourceAsset(context.Background(), "mystery"); err != nil {
		t.Fatalf("EnsureSourceAsset: %v", err)
	}
	args := gw.runs[0]
	if got := argValue(args, "-i"); got != "sine=frequency=440:duration=10" {
		t.Fatalf("fallback input = %q", got)
	}
	if got := argValue(args, "-af"); got != "" {
		t.Fatalf("fallback should apply no filter, got %q", got)
	}
}

func TestMakeTransient_FadeEnvelope(t *testing.T) {
	gw := &fakeGateway{}
	assets := newTestAssets(t, gw)

	path, err := assets.MakeTransient(context.Background(), "dramatic", 5)
	if err != nil {
		t.Fatalf("MakeTransient: %v", err)
	}

	trim := gw.runs[len(gw.runs)-1]
	if got := argValue(trim, "-t"); got != "5" {
		t.Fatalf("-t = %q, want 5", got)
	}
	want := "afade=t=in:st=0:d=1,afade=t=out:st=3:d=2,volume=0.7"
	if got := argValue(trim, "-af"); got != want {
		t.Fatalf("-af = %q, want %q", got, want)
	}
	if !strings.HasPrefix(filepath.Base(path), "dramatic_") {
		t.Fatalf("transient name %q does not carry the effect id", filepath.Base(path))
	}
}

func TestMakeTransient_ShortTargetClampsFadeOut(t *testing.T) {
	gw := &fakeGateway{}
	assets := newTestAssets(t, gw)

	// dramatic has a 2 s fade-out; a 1.5 s target must not go negative.
	_, err := assets.MakeTransient(context.Background(), "dramatic", 1.5)
	if err != nil {
		t.Fatalf("MakeTransient: %v", err)
	}
	trim := gw.runs[len(gw.runs)-1]
	want := "afade=t=in:st=0:d=1,afade=t=out:st=0:d=1.5,volume=0.7"
	if got := argValue(trim, "-af"); got != want {
		t.Fatalf("-af = %q, want %q", got, want)
	}
}

func TestMakeTransient_UniquePaths(t *testing.T) {
	gw := &fakeGateway{}
	assets := newTestAssets(t, gw)
	ctx := context.Background()

	a, err := assets.MakeTransient(ctx, "suspense", 5)
	if err != nil {
		t.Fatalf("MakeTransient: %v", err)
	}
	b, err := assets.MakeTransient(ctx, "suspense", 5)
	if err != nil {
		t.Fatalf("MakeTransient: %v", err)
	}
	if a == b {
		t.Fatalf("identical requests share a transient path: %q", a)
	}
}

func TestMakeTransient_Errors(t *testing.T) {
	gw := &fakeGateway{}
	assets := newTestAssets(t, gw)
	ctx := context.Background()

	if _, err := assets.MakeTransient(ctx, "dramatic", 0); !errors.Is(err, ErrEffectSynthesis) {
		t.Fatalf("zero duration err = %v, want ErrEffectSynthesis", err)
	}
	if _, err := assets.MakeTransient(ctx, "airhorn", 5); !errors.Is(err, ErrEffectSynthesis) {
		t.Fatalf("unknown effect err = %v, want ErrEffectSynthesis", err)
	}
	if len(gw.runs) != 0 {
		t.Fatalf("invalid requests reached the gateway: %d runs", len(gw.runs))
	}

	gw.failWhen = func(args []string) bool { return true }
	if _, err := assets.MakeTransient(ctx, "dramatic", 5); !errors.Is(err, ErrEffectSynthesis) {
		t.Fatalf("gateway failure err = %v, want ErrEffectSynthesis", err)
	}
}
