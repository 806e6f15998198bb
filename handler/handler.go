package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipforge/constant"
	"clipforge/dto"
	"clipforge/entities"
	"clipforge/pkg/ffmpeg"
	"clipforge/repository"
	"clipforge/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var allowedExtensions = map[string]struct{}{
	"mp4":  {},
	"avi":  {},
	"mov":  {},
	"webm": {},
}

// statusByKind is the single translation point from the error taxonomy to
// transport status codes.
var statusByKind = []struct {
	kind   error
	status int
}{
	{service.ErrInvalidInterval, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrRetrieval, http.StatusBadGateway},
	{service.ErrEffectSynthesis, http.StatusInternalServerError},
	{service.ErrComposition, http.StatusInternalServerError},
	{ffmpeg.ErrMediaIO, http.StatusInternalServerError},
}

func statusFor(err error) int {
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

type Handler struct {
	composeService service.Service
	youtube        *service.YouTubeClient
	repo           repository.CompositionRepository
	uploadDir      string
}

func New(composeService service.Service, youtube *service.YouTubeClient, repo repository.CompositionRepository, uploadDir string) *Handler {
	return &Handler{
		composeService: composeService,
		youtube:        youtube,
		repo:           repo,
		uploadDir:      uploadDir,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	video := r.Group("/api/video")
	video.POST("/upload", h.Upload)
	video.POST("/process", h.Compose)
	video.GET("/effects", h.ListEffects)
	video.GET("/thumbnail/:id", h.GetThumbnail)
	video.GET("/:id", h.GetVideo)

	youtube := r.Group("/api/youtube")
	youtube.GET("/info", h.YouTubeInfo)
	youtube.POST("/download", h.YouTubeDownload)
}

func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no filename provided"})
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file extension %q is not allowed", ext)})
		return
	}

	videoId := uuid.NewString()
	path := filepath.Join(h.uploadDir, fmt.Sprintf("%s.mp4", videoId))
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.recordUpload(c.Request.Context(), videoId, path)

	zerolog.Ctx(c.Request.Context()).Info().Str("video_id", videoId).Msg("video uploaded")
	c.JSON(http.StatusOK, dto.UploadResult{Success: true, VideoId: videoId})
}

func (h *Handler) Compose(c *gin.Context) {
	var req dto.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.VideoId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "videoId is required"})
		return
	}

	result, err := h.composeService.Compose(c.Request.Context(), service.ComposeParams{
		VideoId:     req.VideoId,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
		SoundEffect: req.SoundEffect,
	})
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("video_id", req.VideoId).Msg("composition request failed")
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetVideo(c *gin.Context) {
	videoId := c.Param("id")
	if _, err := uuid.Parse(videoId); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	path := h.composeService.OutputPath(videoId)
	if !fileExists(path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.File(path)
}

func (h *Handler) GetThumbnail(c *gin.Context) {
	videoId := c.Param("id")
	if _, err := uuid.Parse(videoId); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	path, err := h.composeService.EnsureThumbnail(c.Request.Context(), videoId)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "image/jpeg")
	c.File(path)
}

func (h *Handler) ListEffects(c *gin.Context) {
	defs := h.composeService.Effects()
	effects := make([]dto.SoundEffect, 0, len(defs))
	for _, def := range defs {
		effects = append(effects, dto.SoundEffect{
			Id:          def.Id,
			Name:        def.Name,
			Description: def.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"effects": effects})
}

func (h *Handler) YouTubeInfo(c *gin.Context) {
	raw := c.Query("video_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video_id is required"})
		return
	}
	videoId, ok := service.ExtractVideoID(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id or url"})
		return
	}

	info, err := h.youtube.Info(c.Request.Context(), videoId)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) YouTubeDownload(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.VideoId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "videoId is required"})
		return
	}
	videoId, ok := service.ExtractVideoID(req.VideoId)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id or url"})
		return
	}

	result, err := h.youtube.Download(c.Request.Context(), videoId, req.Quality)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("video_id", videoId).Msg("download request failed")
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) recordUpload(ctx context.Context, videoId, path string) {
	if h.repo == nil {
		return
	}
	id, err := uuid.Parse(videoId)
	if err != nil {
		return
	}
	video := &entities.SourceVideo{
		ID:        id,
		Origin:    constant.SourceOriginUpload,
		Path:      path,
		CreatedAt: time.Now(),
	}
	if err := h.repo.CreateSourceVideo(ctx, video); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to record uploaded video")
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ServiceDependencies carries what queue handlers need.
type ServiceDependencies struct {
	ComposeService service.Service
}

// ComposeJobHandler processes backend-initiated composition messages.
func ComposeJobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.ComposeJobMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal compose job message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("job_id", job.JobId.String()).
		Str("video_id", job.VideoId).
		Msg("received compose job message")

	_, err := deps.ComposeService.Compose(ctx, service.ComposeParams{
		VideoId:     job.VideoId,
		StartTime:   job.StartTime,
		Duration:    job.Duration,
		SoundEffect: job.SoundEffect,
	})
	if err != nil {
		return err
	}

	return nil
}
