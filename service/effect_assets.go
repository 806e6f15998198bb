package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MediaGateway is the boundary every external media-tool invocation goes
// through. Implemented by pkg/ffmpeg; faked in tests.
type MediaGateway interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	Run(ctx context.Context, args ...string) error
}

// sourceAssetDuration is the fixed nominal length of every durable effect
// source asset; transients are trimmed down from it.
const sourceAssetDuration = 10.0

// EffectAssets materializes effect audio on disk. Source assets are durable,
// one per effect, synthesized lazily and never re-synthesized. Transient
// assets are request-scoped duration-matched derivations; the caller owns
// their deletion.
type EffectAssets struct {
	gw       MediaGateway
	catalog  *Catalog
	audioDir string
	tmpDir   string

	newToken func() string
}

func NewEffectAssets(gw MediaGateway, catalog *Catalog, audioDir, tmpDir string) *EffectAssets {
	return &EffectAssets{
		gw:       gw,
		catalog:  catalog,
		audioDir: audioDir,
		tmpDir:   tmpDir,
		newToken: uuid.NewString,
	}
}

// SourceAssetPath derives the deterministic durable path for an effect.
func (m *EffectAssets) SourceAssetPath(effectId string) string {
	return filepath.Join(m.audioDir, fmt.Sprintf("%s.mp3", effectId))
}

// EnsureSourceAsset returns the durable asset for effectId, synthesizing it
// on first use. An id without a registered recipe gets a plain tone.
func (m *EffectAssets) EnsureSourceAsset(ctx context.Context, effectId string) (string, error) {
	path := m.SourceAssetPath(effectId)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	frequency := 440.0
	filterChain := ""
	if def, err := m.catalog.Get(effectId); err == nil {
		frequency = def.Frequency
		filterChain = def.FilterChain
	}

	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=%s:duration=%s", formatSeconds(frequency), formatSeconds(sourceAssetDuration)),
	}
	if filterChain != "" {
		args = append(args, "-af", filterChain)
	}
	args = append(args, "-y", path)

	zerolog.Ctx(ctx).Info().Str("effect", effectId).Str("path", path).Msg("synthesizing effect source asset")
	if err := m.gw.Run(ctx, args...); err != nil {
		return "", errors.Join(ErrEffectSynthesis, err)
	}
	return path, nil
}

// MakeTransient derives an asset trimmed to exactly targetDuration with the
// effect's fade envelope and gain applied. The returned file carries a
// per-invocation token so concurrent identical requests never share a path.
func (m *EffectAssets) MakeTransient(ctx context.Context, effectId string, targetDuration float64) (string, error) {
	if targetDuration <= 0 {
		return "", errors.Join(ErrEffectSynthesis, fmt.Errorf("target duration must be positive, got %g", targetDuration))
	}

	def, err := m.catalog.Get(effectId)
	if err != nil {
		return "", errors.Join(ErrEffectSynthesis, err)
	}

	src, err := m.EnsureSourceAsset(ctx, effectId)
	if err != nil {
		return "", err
	}

	fadeOutStart, fadeOutLen := clampFadeOut(targetDuration, def.FadeOut)
	filter := fmt.Sprintf("afade=t=in:st=0:d=%s,afade=t=out:st=%s:d=%s,volume=%s",
		formatSeconds(def.FadeIn), formatSeconds(fadeOutStart), formatSeconds(fadeOutLen), formatSeconds(def.Volume))

	path := filepath.Join(m.tmpDir, fmt.Sprintf("%s_%s.mp3", effectId, m.newToken()))

	zerolog.Ctx(ctx).Info().Str("effect", effectId).Float64("duration", targetDuration).Msg("shaping transient effect asset")
	err = m.gw.Run(ctx,
		"-i", src,
		"-t", formatSeconds(targetDuration),
		"-af", filter,
		"-y", path,
	)
	if err != nil {
		return "", errors.Join(ErrEffectSynthesis, err)
	}
	return path, nil
}

// clampFadeOut places the fade-out window inside [0, target]. A target
// shorter than the configured fade-out gets a fade starting at 0 spanning
// the lesser of the two; the offset is never negative.
func clampFadeOut(target, fadeOut float64) (start, length float64) {
	start = target - fadeOut
	length = fadeOut
	if start < 0 {
		start = 0
		length = min(fadeOut, target)
	}
	return start, length
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%g", v)
}
