package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clipforge/config"
	"clipforge/constant"
	"clipforge/dto"
	"clipforge/entities"
	"clipforge/pkg/cache"
	"clipforge/repository"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

// ResultKey identifies a composition outcome: source, resolved interval,
// and effect. A struct key avoids the delimiter-collision bugs of
// concatenated strings.
type ResultKey struct {
	SourceId    string
	StartTime   float64
	Duration    float64
	SoundEffect string
}

type ComposeParams struct {
	VideoId     string
	StartTime   *float64
	Duration    *float64
	SoundEffect string
}

type Service interface {
	Compose(ctx context.Context, params ComposeParams) (dto.ComposeResult, error)
	EnsureThumbnail(ctx context.Context, outputId string) (string, error)
	Effects() []EffectDefinition
	OutputPath(outputId string) string
	ThumbnailPath(outputId string) string
}

type service struct {
	gw       MediaGateway
	catalog  *Catalog
	assets   *EffectAssets
	selector *Selector
	results  *cache.Cache[ResultKey, dto.ComposeResult]
	pool     *WorkerPool
	repo     repository.CompositionRepository
	cfg      *config.Config

	newOutputId func() string
}

func NewService(
	gw MediaGateway,
	catalog *Catalog,
	assets *EffectAssets,
	selector *Selector,
	results *cache.Cache[ResultKey, dto.ComposeResult],
	pool *WorkerPool,
	repo repository.CompositionRepository,
	cfg *config.Config,
) Service {
	return &service{
		gw:          gw,
		catalog:     catalog,
		assets:      assets,
		selector:    selector,
		results:     results,
		pool:        pool,
		repo:        repo,
		cfg:         cfg,
		newOutputId: uuid.NewString,
	}
}

func (s *service) Effects() []EffectDefinition {
	return s.catalog.List()
}

func (s *service) OutputPath(outputId string) string {
	return filepath.Join(s.cfg.Paths.Processed, fmt.Sprintf("%s.mp4", outputId))
}

func (s *service) ThumbnailPath(outputId string) string {
	return filepath.Join(s.cfg.Paths.Processed, fmt.Sprintf("%s.jpg", outputId))
}

// sourcePath locates a source video: retrieved videos land in the cache dir,
// uploads in the upload dir.
func (s *service) sourcePath(videoId string) (string, error) {
	candidates := []string{
		filepath.Join(s.cfg.Paths.Cache, fmt.Sprintf("%s.mp4", videoId)),
		filepath.Join(s.cfg.Paths.Upload, fmt.Sprintf("%s.mp4", videoId)),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.Join(ErrNotFound, fmt.Errorf("source video %s does not exist", videoId))
}

func (s *service) Compose(ctx context.Context, params ComposeParams) (result dto.ComposeResult, err error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("video_id", params.VideoId).Str("effect", params.SoundEffect).Msg("processing composition")

	// An unknown effect id must fail before any tool runs.
	if params.SoundEffect != "" {
		if _, err := s.catalog.Get(params.SoundEffect); err != nil {
			return dto.ComposeResult{}, err
		}
	}

	inputPath, err := s.sourcePath(params.VideoId)
	if err != nil {
		return dto.ComposeResult{}, err
	}

	totalDuration, err := s.gw.ProbeDuration(ctx, inputPath)
	if err != nil {
		return dto.ComposeResult{}, err
	}

	selection, err := s.selector.Select(totalDuration, params.StartTime, params.Duration)
	if err != nil {
		return dto.ComposeResult{}, err
	}

	key := ResultKey{
		SourceId:    params.VideoId,
		StartTime:   selection.StartTime,
		Duration:    selection.Duration,
		SoundEffect: params.SoundEffect,
	}
	if s.results != nil {
		if cached, ok := s.results.Get(key); ok {
			logger.Info().Str("video_id", params.VideoId).Msg("composition served from cache")
			return cached, nil
		}
	}

	outputId := s.newOutputId()
	s.recordStart(ctx, outputId, params, selection)
	defer func() {
		if err != nil {
			s.recordStatus(ctx, outputId, constant.CompositionStatusFailed)
		}
	}()

	// Effect materialization failure aborts the composition: the caller
	// asked for the effect, so it is never dropped silently.
	transientPath := ""
	if params.SoundEffect != "" {
		transientPath, err = s.assets.MakeTransient(ctx, params.SoundEffect, selection.Duration)
		if err != nil {
			return dto.ComposeResult{}, errors.Join(ErrComposition, err)
		}
		defer func() {
			if removeErr := os.Remove(transientPath); removeErr != nil && !os.IsNotExist(removeErr) {
				logger.Warn().Err(removeErr).Str("path", transientPath).Msg("failed to remove transient effect asset")
			}
		}()
	}

	if err = s.pool.Acquire(ctx); err != nil {
		return dto.ComposeResult{}, err
	}
	defer s.pool.Release()

	outputPath := s.OutputPath(outputId)
	thumbnailPath := s.ThumbnailPath(outputId)

	logger.Info().Str("input", inputPath).Str("output", outputPath).
		Float64("start", selection.StartTime).Float64("duration", selection.Duration).
		Float64("confidence", selection.Confidence).Msg("running mixdown")
	if err = s.gw.Run(ctx, buildComposeArgs(inputPath, transientPath, selection, s.cfg.Media, outputPath)...); err != nil {
		s.discard(ctx, outputPath)
		return dto.ComposeResult{}, errors.Join(ErrComposition, err)
	}

	if err = s.gw.Run(ctx, buildThumbnailArgs(outputPath, thumbnailPath)...); err != nil {
		s.discard(ctx, outputPath, thumbnailPath)
		return dto.ComposeResult{}, errors.Join(ErrComposition, err)
	}

	// Encoder rounding means the realized duration can differ from the
	// requested one; report what is actually on disk.
	realDuration, err := s.gw.ProbeDuration(ctx, outputPath)
	if err != nil {
		s.discard(ctx, outputPath, thumbnailPath)
		return dto.ComposeResult{}, errors.Join(ErrComposition, err)
	}

	s.archive(ctx, outputId, outputPath, thumbnailPath)
	s.recordFinish(ctx, outputId, realDuration, outputPath, thumbnailPath)

	result = dto.ComposeResult{
		Success:  true,
		VideoId:  outputId,
		Duration: realDuration,
		Url:      fmt.Sprintf("/api/video/%s", outputId),
	}
	if s.results != nil {
		s.results.Put(key, result)
	}

	logger.Info().Str("video_id", params.VideoId).Str("output_id", outputId).Msg("composition completed")
	return result, nil
}

// EnsureThumbnail returns the thumbnail path for an output, generating it
// from the stored artifact when missing.
func (s *service) EnsureThumbnail(ctx context.Context, outputId string) (string, error) {
	outputPath := s.OutputPath(outputId)
	if _, err := os.Stat(outputPath); err != nil {
		return "", errors.Join(ErrNotFound, fmt.Errorf("output video %s does not exist", outputId))
	}

	thumbnailPath := s.ThumbnailPath(outputId)
	if _, err := os.Stat(thumbnailPath); err == nil {
		return thumbnailPath, nil
	}

	zerolog.Ctx(ctx).Info().Str("output_id", outputId).Msg("generating missing thumbnail")
	if err := s.gw.Run(ctx, buildThumbnailArgs(outputPath, thumbnailPath)...); err != nil {
		return "", errors.Join(ErrComposition, err)
	}
	return thumbnailPath, nil
}

func buildComposeArgs(inputPath, transientPath string, selection ClipSelection, media config.Media, outputPath string) []string {
	// The trim flags must precede the source input: ffmpeg binds -ss/-t to
	// the next file on the command line, so placing them later would seek
	// into the effect audio instead of trimming the video.
	args := []string{
		"-ss", formatSeconds(selection.StartTime),
		"-t", formatSeconds(selection.Duration),
		"-i", inputPath,
	}
	if transientPath != "" {
		args = append(args,
			"-i", transientPath,
			"-filter_complex", "[0:a][1:a]amix=inputs=2:duration=shortest[a]",
			"-map", "0:v",
			"-map", "[a]",
		)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", media.EncodingPreset,
		"-crf", strconv.Itoa(media.CRF),
		"-c:a", "aac",
		"-b:a", media.AudioBitrate,
		"-movflags", "+faststart",
		"-y", outputPath,
	)
	return args
}

func buildThumbnailArgs(outputPath, thumbnailPath string) []string {
	return []string{
		"-i", outputPath,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-q:v", "2",
		"-y", thumbnailPath,
	}
}

// discard removes partial artifacts so a failed composition never exposes a
// corrupt file under a valid-looking id.
func (s *service) discard(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("failed to remove partial output")
		}
	}
}

// archive uploads finished artifacts to object storage when configured.
// Archival is best-effort: the local artifact is the serving copy.
func (s *service) archive(ctx context.Context, outputId, outputPath, thumbnailPath string) {
	if s.cfg.Storage == nil {
		return
	}
	for _, upload := range []struct{ object, local string }{
		{fmt.Sprintf("processed/%s.mp4", outputId), outputPath},
		{fmt.Sprintf("processed/%s.jpg", outputId), thumbnailPath},
	} {
		_, err := s.cfg.Storage.FPutObject(ctx, s.cfg.MinIOBucket, upload.object, upload.local, minio.PutObjectOptions{})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("object", upload.object).Msg("failed to archive artifact")
		}
	}
}

func (s *service) recordStart(ctx context.Context, outputId string, params ComposeParams, selection ClipSelection) {
	if s.repo == nil {
		return
	}
	id, err := uuid.Parse(outputId)
	if err != nil {
		return
	}
	composition := &entities.Composition{
		ID:          id,
		SourceId:    params.VideoId,
		StartTime:   selection.StartTime,
		Duration:    selection.Duration,
		SoundEffect: params.SoundEffect,
		Status:      constant.CompositionStatusProcessing,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.CreateComposition(ctx, composition); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to record composition")
	}
}

func (s *service) recordStatus(ctx context.Context, outputId string, status constant.CompositionStatus) {
	if s.repo == nil {
		return
	}
	id, err := uuid.Parse(outputId)
	if err != nil {
		return
	}
	if err := s.repo.UpdateCompositionStatus(ctx, id, status); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to update composition status")
	}
}

func (s *service) recordFinish(ctx context.Context, outputId string, realDuration float64, outputPath, thumbnailPath string) {
	if s.repo == nil {
		return
	}
	id, err := uuid.Parse(outputId)
	if err != nil {
		return
	}
	if err := s.repo.FinishComposition(ctx, id, realDuration, outputPath, thumbnailPath); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to finish composition record")
	}
}
