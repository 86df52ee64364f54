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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"subtitle-worker/config"
	"subtitle-worker/constant"
	"subtitle-worker/dto"
	jobHandler "subtitle-worker/handler"
	"subtitle-worker/pkg/rabbitmq"
	"subtitle-worker/repository"
	"subtitle-worker/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)
	mediaService := service.NewService(repo, cfg)
	subtitleService := service.NewSubtitleService(repo)

	serviceDeps := jobHandler.ServiceDependencies{
		MediaService:    mediaService,
		SubtitleService: subtitleService,
	}

	// Start media processing consumer
	processConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.ProcessTopology, cfg.Server.Workers, jobHandler.ProcessHandler)
	go func() {
		err := processConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Process consumer error")
		}
	}()

	// Start transcription result consumer
	transcriptionConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.TranscriptionTopology, cfg.Server.Workers, jobHandler.TranscriptionHandler)
	go func() {
		err := transcriptionConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Transcription consumer error")
		}
	}()

	// Start translation consumer
	translateConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.TranslateTopology, cfg.Server.Workers, jobHandler.TranslateHandler)
	go func() {
		err := translateConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Translate consumer error")
		}
	}()

	r := gin.Default()
	addHealth(r)
	addStatusRoutes(r, mediaService, repo)
	addExportRoutes(r, subtitleService)

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

// addStatusRoutes exposes the read-only poll contract: clients watch a
// file's snapshot until it goes ready or error. Files not known to the
// in-memory tracker (e.g. finished before a restart) fall back to the
// persisted row.
func addStatusRoutes(r *gin.Engine, mediaService service.Service, repo repository.MediaRepository) {
	r.GET("/files/:id/status", func(c *gin.Context) {
		fileId, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
			return
		}
		if snapshot, ok := mediaService.Tracker().Snapshot(fileId); ok {
			c.JSON(http.StatusOK, snapshot)
			return
		}

		file, err := repo.FindMediaFileById(c.Request.Context(), fileId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown file"})
			return
		}
		snapshot := dto.StatusSnapshot{
			FileId:      file.ID,
			Status:      string(file.Status),
			Progress:    file.Progress,
			OriginalUrl: file.OriginalUrl,
		}
		if file.Error != nil {
			snapshot.Error = *file.Error
		}
		if file.PreviewUrl != nil {
			snapshot.PreviewUrl = *file.PreviewUrl
		}
		if file.ThumbnailUrl != nil {
			snapshot.ThumbnailUrl = *file.ThumbnailUrl
		}
		if file.AudioUrl != nil {
			snapshot.AudioUrl = *file.AudioUrl
		}
		c.JSON(http.StatusOK, snapshot)
	})
}

func addExportRoutes(r *gin.Engine, subtitleService service.SubtitleService) {
	r.GET("/transcriptions/:id/export", func(c *gin.Context) {
		transcriptionId, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transcription id"})
			return
		}
		format := service.ExportFormat(c.DefaultQuery("format", "srt"))
		language := c.Query("language")

		payload, err := subtitleService.Export(c.Request.Context(), transcriptionId, language, format)
		if err != nil {
			var validationErr *service.ValidationError
			if errors.As(err, &validationErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Data(http.StatusOK, exportContentType(format), payload)
	})
}

func exportContentType(format service.ExportFormat) string {
	switch format {
	case service.FormatJSON:
		return "application/json"
	case service.FormatVTT:
		return "text/vtt"
	default:
		return "text/plain; charset=utf-8"
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
