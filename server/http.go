package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipforge/config"
	"clipforge/constant"
	"clipforge/dto"
	jobHandler "clipforge/handler"
	"clipforge/pkg/cache"
	"clipforge/pkg/ffmpeg"
	"clipforge/pkg/rabbitmq"
	"clipforge/repository"
	"clipforge/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	gateway := ffmpeg.New("", "")
	if err := gateway.Check(ctx); err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("media tool check failed")
	}

	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("database unavailable, composition records disabled")
	}
	catalog := service.DefaultCatalog()
	assets := service.NewEffectAssets(gateway, catalog, cfg.Paths.Audio, cfg.Paths.Cache)
	selector := service.NewSelector(service.ThirdOffsetStrategy{DefaultClipDuration: cfg.Media.DefaultClipDuration})
	pool := service.NewWorkerPool(cfg.Server.Workers)

	var results *cache.Cache[service.ResultKey, dto.ComposeResult]
	var downloads *cache.Cache[service.DownloadKey, dto.DownloadResult]
	if cfg.Cache.Enabled {
		results = cache.New[service.ResultKey, dto.ComposeResult](cfg.Cache.MaxAge, cfg.Cache.MaxEntries)
		downloads = cache.New[service.DownloadKey, dto.DownloadResult](cfg.Cache.MaxAge, cfg.Cache.MaxEntries)
		go results.Run(ctx, cfg.Cache.SweepInterval)
		go downloads.Run(ctx, cfg.Cache.SweepInterval)
	}

	composeService := service.NewService(gateway, catalog, assets, selector, results, pool, repo, cfg)
	youtubeClient := service.NewYouTubeClient(cfg.Paths.Cache, cfg.Media.YouTubeQuality, downloads, pool, repo)

	janitor := service.NewJanitor(
		[]string{cfg.Paths.Processed, cfg.Paths.Cache},
		cfg.Cache.FileRetention,
		cfg.Cache.SweepInterval,
	)
	go janitor.Run(ctx)

	if cfg.Queue != nil && cfg.Queue.Host != "" {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		} else {
			serviceDeps := jobHandler.ServiceDependencies{
				ComposeService: composeService,
			}
			composeConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, jobHandler.ComposeJobHandler)
			go func() {
				err := composeConsumer.Consume(ctx, serviceDeps)
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("Compose consumer error")
				}
			}()
		}
	}

	r := gin.Default()
	r.Use(requestLogger(ctx))
	addHealth(r)

	h := jobHandler.New(composeService, youtubeClient, repo, cfg.Paths.Upload)
	h.Register(r)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

// requestLogger carries the process logger into each request context.
func requestLogger(base context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(base)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
