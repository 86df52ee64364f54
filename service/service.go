package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"subtitle-worker/config"
	"subtitle-worker/constant"
	"subtitle-worker/dto"
	"subtitle-worker/entities"
	"subtitle-worker/repository"
)

// Service runs the media processing pipeline for one uploaded file:
// probe, preview transcode, speech-audio extraction, thumbnail, then
// artifact upload. One job is strictly sequential; jobs are
// independent of each other.
type Service interface {
	Process(ctx context.Context, message dto.ProcessMessage) error
	StartDetached(ctx context.Context, message dto.ProcessMessage)
	Tracker() *StatusTracker
}

type service struct {
	repo       repository.MediaRepository
	cfg        *config.Config
	transcoder *Transcoder
	temp       *TempManager
	tracker    *StatusTracker
}

func NewService(repo repository.MediaRepository, cfg *config.Config) Service {
	return &service{
		repo:       repo,
		cfg:        cfg,
		transcoder: NewTranscoder(cfg.Media),
		temp:       NewTempManager(cfg.Media.ScratchDir),
		tracker:    NewStatusTracker(),
	}
}

func (s *service) Tracker() *StatusTracker {
	return s.tracker
}

// StartDetached runs Process in its own goroutine so the triggering
// call returns immediately. Panics inside the job are caught and end
// up in the file's error field, never unhandled.
func (s *service) StartDetached(ctx context.Context, message dto.ProcessMessage) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reason := fmt.Sprintf("processing panic: %v", r)
				zerolog.Ctx(ctx).Error().Str("reason", reason).Msg("job panicked")
				s.fail(ctx, message.FileId, reason)
			}
		}()
		_ = s.Process(ctx, message)
	}()
}

func (s *service) Process(ctx context.Context, message dto.ProcessMessage) (err error) {
	zerolog.Ctx(ctx).Info().Str("file_id", message.FileId.String()).Msg("processing media file")

	file, err := s.repo.FindMediaFileById(ctx, message.FileId)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to find media file by id")
		return err
	}

	if file.Status.Terminal() {
		zerolog.Ctx(ctx).Info().Str("file_id", message.FileId.String()).Msg("file already in terminal state")
		return nil
	}

	s.tracker.Begin(message.FileId)
	if err := s.repo.UpdateMediaStatus(ctx, message.FileId, constant.MediaStatusProcessing); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to update media status")
		return err
	}

	var tempPaths []string
	defer func() {
		s.temp.ReleaseAll(tempPaths)
		if err != nil {
			s.fail(ctx, message.FileId, failureReason(err))
		}
	}()

	// Download the original into scratch space.
	sourcePath, err := s.temp.Allocate(filepath.Ext(message.FileName))
	if err != nil {
		return errors.Join(ErrNonRetryable, err)
	}
	tempPaths = append(tempPaths, sourcePath)

	zerolog.Ctx(ctx).Info().Str("object_path", message.ObjectPath).Msg("downloading source file")
	if err = s.cfg.Storage.FGetObject(ctx, s.cfg.MinIOBucket, message.ObjectPath, sourcePath, minio.GetObjectOptions{}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to download source file")
		return &StorageError{Key: message.ObjectPath, Err: err}
	}
	s.checkpoint(ctx, message.FileId, constant.ProgressDownloaded)

	info, err := s.transcoder.Probe(ctx, sourcePath)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to probe source file")
		return errors.Join(ErrNonRetryable, err)
	}
	s.checkpoint(ctx, message.FileId, constant.ProgressProbed)

	uploadId := uuid.New()
	artifacts := entities.DerivedArtifacts{Duration: info.Duration}

	var previewPath, thumbnailPath string
	if info.HasVideo {
		previewPath, err = s.temp.Allocate("mp4")
		if err != nil {
			return errors.Join(ErrNonRetryable, err)
		}
		tempPaths = append(tempPaths, previewPath)

		zerolog.Ctx(ctx).Info().Msg("transcoding preview")
		if _, err = s.transcoder.ToPreview(ctx, sourcePath, previewPath); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to transcode preview")
			return errors.Join(ErrNonRetryable, err)
		}
	}
	s.checkpoint(ctx, message.FileId, constant.ProgressPreviewDone)

	audioPath, err := s.temp.Allocate("mp3")
	if err != nil {
		return errors.Join(ErrNonRetryable, err)
	}
	tempPaths = append(tempPaths, audioPath)

	zerolog.Ctx(ctx).Info().Msg("extracting transcription audio")
	if _, err = s.transcoder.ExtractAudio(ctx, sourcePath, audioPath); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to extract audio")
		return errors.Join(ErrNonRetryable, err)
	}
	s.checkpoint(ctx, message.FileId, constant.ProgressAudioDone)

	if info.HasVideo {
		thumbnailPath, err = s.temp.Allocate("jpg")
		if err != nil {
			return errors.Join(ErrNonRetryable, err)
		}
		tempPaths = append(tempPaths, thumbnailPath)

		// Thumbnail failure never fails the job.
		if _, thumbErr := s.transcoder.ExtractThumbnail(ctx, sourcePath, thumbnailPath, defaultThumbnailAt); thumbErr != nil {
			zerolog.Ctx(ctx).Warn().Err(thumbErr).Msg("thumbnail extraction failed, continuing without thumbnail")
			thumbnailPath = ""
		}
	}

	if previewPath != "" {
		artifacts.PreviewUrl, err = s.uploadArtifact(ctx, message.OwnerId, uploadId, constant.ArtifactPreview, previewPath, "preview.mp4")
		if err != nil {
			return err
		}
	}
	artifacts.AudioUrl, err = s.uploadArtifact(ctx, message.OwnerId, uploadId, constant.ArtifactAudio, audioPath, "audio.mp3")
	if err != nil {
		return err
	}
	if thumbnailPath != "" {
		artifacts.ThumbnailUrl, err = s.uploadArtifact(ctx, message.OwnerId, uploadId, constant.ArtifactThumbnail, thumbnailPath, "thumbnail.jpg")
		if err != nil {
			return err
		}
	}
	s.checkpoint(ctx, message.FileId, constant.ProgressUploaded)

	if err = s.repo.MarkMediaReady(ctx, message.FileId, artifacts); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to mark media ready")
		return err
	}
	s.tracker.Finish(message.FileId, dto.StatusSnapshot{
		OriginalUrl:  s.publicUrl(message.ObjectPath),
		PreviewUrl:   artifacts.PreviewUrl,
		ThumbnailUrl: artifacts.ThumbnailUrl,
		AudioUrl:     artifacts.AudioUrl,
	})

	zerolog.Ctx(ctx).Info().Str("file_id", message.FileId.String()).Msg("media file ready")

	return nil
}

func (s *service) checkpoint(ctx context.Context, fileId uuid.UUID, progress int) {
	s.tracker.Checkpoint(fileId, progress)
	if err := s.repo.UpdateMediaProgress(ctx, fileId, progress); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to persist progress")
	}
}

// failureReason extracts the user-visible message from a pipeline
// error. ErrNonRetryable is a queue-layer redelivery signal and must
// not leak into the error field a client polls.
func failureReason(err error) string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err.Error()
	}
	for _, e := range joined.Unwrap() {
		if !errors.Is(e, ErrNonRetryable) {
			return e.Error()
		}
	}
	return err.Error()
}

func (s *service) fail(ctx context.Context, fileId uuid.UUID, message string) {
	if fileId == uuid.Nil {
		return
	}
	s.tracker.Fail(fileId, message)
	if err := s.repo.MarkMediaError(ctx, fileId, message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to mark media error")
	}
}

// uploadArtifact pushes one derived file under the deterministic
// owner/upload/kind key layout and returns its public URL.
func (s *service) uploadArtifact(ctx context.Context, ownerId, uploadId uuid.UUID, kind constant.ArtifactKind, localPath, name string) (string, error) {
	key := ArtifactKey(ownerId, uploadId, kind, name)
	if _, err := s.cfg.Storage.FPutObject(ctx, s.cfg.MinIOBucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("key", key).Msg("failed to upload artifact")
		return "", &StorageError{Key: key, Err: err}
	}
	return s.publicUrl(key), nil
}

func (s *service) publicUrl(key string) string {
	return fmt.Sprintf("%s://%s/%s/%s", s.cfg.App.Protocol, s.cfg.App.Host, s.cfg.MinIOBucket, key)
}

// ArtifactKey builds the storage key for one artifact:
// {owner}/{upload}/{kind}/{name}.
func ArtifactKey(ownerId, uploadId uuid.UUID, kind constant.ArtifactKind, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s", ownerId, uploadId, kind, name)
}
