package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clipforge/constant"
	"clipforge/dto"
	"clipforge/entities"
	"clipforge/pkg/cache"
	"clipforge/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var youtubeIdPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// DownloadKey identifies a completed retrieval by origin video and quality.
type DownloadKey struct {
	OriginalId string
	Quality    string
}

// YouTubeClient fetches external videos into the local cache dir by shelling
// out to yt-dlp. Each retrieved file gets a local uuid; downstream code only
// ever sees local ids.
type YouTubeClient struct {
	binary         string
	cacheDir       string
	defaultQuality string
	downloads      *cache.Cache[DownloadKey, dto.DownloadResult]
	pool           *WorkerPool
	repo           repository.CompositionRepository

	newLocalId func() string
}

func NewYouTubeClient(
	cacheDir, defaultQuality string,
	downloads *cache.Cache[DownloadKey, dto.DownloadResult],
	pool *WorkerPool,
	repo repository.CompositionRepository,
) *YouTubeClient {
	return &YouTubeClient{
		binary:         "yt-dlp",
		cacheDir:       cacheDir,
		defaultQuality: defaultQuality,
		downloads:      downloads,
		pool:           pool,
		repo:           repo,
		newLocalId:     uuid.NewString,
	}
}

// ExtractVideoID accepts a bare 11-character id, a youtu.be short link, or a
// youtube.com watch URL.
func ExtractVideoID(raw string) (string, bool) {
	if youtubeIdPattern.MatchString(raw) {
		return raw, true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if strings.Contains(u.Host, "youtu.be") {
		id := strings.Trim(u.Path, "/")
		if youtubeIdPattern.MatchString(id) {
			return id, true
		}
		return "", false
	}
	if strings.Contains(u.Host, "youtube.com") {
		id := u.Query().Get("v")
		if youtubeIdPattern.MatchString(id) {
			return id, true
		}
	}
	return "", false
}

type ytMetadata struct {
	Id       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

func (c *YouTubeClient) Info(ctx context.Context, videoId string) (dto.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, c.binary, "-J", "--no-playlist", watchURL(videoId))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return dto.VideoInfo{}, errors.Join(ErrRetrieval, fmt.Errorf("yt-dlp metadata for %s: %w: %s",
			videoId, err, strings.TrimSpace(stderr.String())))
	}

	var meta ytMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return dto.VideoInfo{}, errors.Join(ErrRetrieval, fmt.Errorf("parse yt-dlp metadata: %w", err))
	}
	return dto.VideoInfo{
		VideoId:  videoId,
		Title:    meta.Title,
		Uploader: meta.Uploader,
		Duration: meta.Duration,
	}, nil
}

func (c *YouTubeClient) Download(ctx context.Context, videoId, quality string) (dto.DownloadResult, error) {
	if quality == "" {
		quality = c.defaultQuality
	}

	key := DownloadKey{OriginalId: videoId, Quality: quality}
	if c.downloads != nil {
		if cached, ok := c.downloads.Get(key); ok {
			if _, err := os.Stat(filepath.Join(c.cacheDir, cached.VideoId+".mp4")); err == nil {
				zerolog.Ctx(ctx).Info().Str("video_id", videoId).Msg("download served from cache")
				return cached, nil
			}
			c.downloads.Delete(key)
		}
	}

	if err := c.pool.Acquire(ctx); err != nil {
		return dto.DownloadResult{}, err
	}
	defer c.pool.Release()

	info, err := c.Info(ctx, videoId)
	if err != nil {
		return dto.DownloadResult{}, err
	}

	localId := c.newLocalId()
	outputPath := filepath.Join(c.cacheDir, fmt.Sprintf("%s.mp4", localId))

	zerolog.Ctx(ctx).Info().Str("video_id", videoId).Str("quality", quality).Str("output", outputPath).Msg("downloading video")
	cmd := exec.CommandContext(ctx, c.binary,
		"-f", formatSelector(quality),
		"--no-playlist",
		"-o", outputPath,
		watchURL(videoId),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return dto.DownloadResult{}, errors.Join(ErrRetrieval, fmt.Errorf("yt-dlp download %s: %w: %s",
			videoId, err, strings.TrimSpace(stderr.String())))
	}
	if _, err := os.Stat(outputPath); err != nil {
		return dto.DownloadResult{}, errors.Join(ErrRetrieval, fmt.Errorf("yt-dlp reported success but %s is missing", outputPath))
	}

	c.recordSource(ctx, localId, videoId, outputPath)

	result := dto.DownloadResult{
		Success:    true,
		VideoId:    localId,
		OriginalId: videoId,
		Title:      info.Title,
	}
	if c.downloads != nil {
		c.downloads.Put(key, result)
	}
	return result, nil
}

func (c *YouTubeClient) recordSource(ctx context.Context, localId, originalId, path string) {
	if c.repo == nil {
		return
	}
	id, err := uuid.Parse(localId)
	if err != nil {
		return
	}
	video := &entities.SourceVideo{
		ID:         id,
		Origin:     constant.SourceOriginYouTube,
		OriginalId: originalId,
		Path:       path,
		CreatedAt:  time.Now(),
	}
	if err := c.repo.CreateSourceVideo(ctx, video); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to record source video")
	}
}

func watchURL(videoId string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoId)
}

// formatSelector maps a "720p"-style quality to a yt-dlp format expression
// capped at that height, preferring progressive mp4.
func formatSelector(quality string) string {
	height, err := strconv.Atoi(strings.TrimSuffix(quality, "p"))
	if err != nil || height <= 0 {
		return "best[ext=mp4]/best"
	}
	return fmt.Sprintf("best[height<=%d][ext=mp4]/best[ext=mp4]/best", height)
}
