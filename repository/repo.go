package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"subtitle-worker/constant"
	"subtitle-worker/entities"
)

type MediaRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB

	FindMediaFileById(ctx context.Context, id uuid.UUID) (*entities.MediaFile, error)
	UpdateMediaStatus(ctx context.Context, id uuid.UUID, status constant.MediaStatus) error
	UpdateMediaProgress(ctx context.Context, id uuid.UUID, progress int) error
	MarkMediaError(ctx context.Context, id uuid.UUID, message string) error
	MarkMediaReady(ctx context.Context, id uuid.UUID, artifacts entities.DerivedArtifacts) error

	FindTranscriptionById(ctx context.Context, id uuid.UUID) (*entities.Transcription, error)
	ReplaceSubtitleSegments(ctx context.Context, transcriptionId uuid.UUID, segments []*entities.SubtitleSegment) error
	GetSubtitleSegments(ctx context.Context, transcriptionId uuid.UUID) ([]*entities.SubtitleSegment, error)
	ReplaceTranslatedSegments(ctx context.Context, transcriptionId uuid.UUID, language string, segments []*entities.TranslatedSegment) error
	GetTranslatedSegments(ctx context.Context, transcriptionId uuid.UUID, language string) ([]*entities.TranslatedSegment, error)
	DeleteTranscription(ctx context.Context, transcriptionId uuid.UUID) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) MediaRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.GetDB().Transaction(func(tx *gorm.DB) error {
		err := callback(ctx)
		if err != nil {
			return err
		}
		return nil
	}, opts...)
}

func (r *repo) FindMediaFileById(ctx context.Context, id uuid.UUID) (*entities.MediaFile, error) {
	file := &entities.MediaFile{}
	err := r.GetDB().First(file, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (r *repo) UpdateMediaStatus(ctx context.Context, id uuid.UUID, status constant.MediaStatus) error {
	file := &entities.MediaFile{}
	err := r.GetDB().Model(file).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) UpdateMediaProgress(ctx context.Context, id uuid.UUID, progress int) error {
	file := &entities.MediaFile{}
	// Never move progress backwards once a later milestone has landed.
	err := r.GetDB().Model(file).
		Where("id = ? AND progress < ?", id, progress).
		Update("progress", progress).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) MarkMediaError(ctx context.Context, id uuid.UUID, message string) error {
	file := &entities.MediaFile{}
	updates := map[string]interface{}{
		"status": constant.MediaStatusError,
		"error":  message,
	}
	err := r.GetDB().Model(file).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) MarkMediaReady(ctx context.Context, id uuid.UUID, artifacts entities.DerivedArtifacts) error {
	file := &entities.MediaFile{}
	updates := map[string]interface{}{
		"status":   constant.MediaStatusReady,
		"progress": constant.ProgressReady,
		"duration": artifacts.Duration,
	}
	if artifacts.PreviewUrl != "" {
		updates["preview_url"] = artifacts.PreviewUrl
	}
	if artifacts.ThumbnailUrl != "" {
		updates["thumbnail_url"] = artifacts.ThumbnailUrl
	}
	if artifacts.AudioUrl != "" {
		updates["audio_url"] = artifacts.AudioUrl
	}
	err := r.GetDB().Model(file).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) FindTranscriptionById(ctx context.Context, id uuid.UUID) (*entities.Transcription, error) {
	transcription := &entities.Transcription{}
	err := r.GetDB().First(transcription, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return transcription, nil
}

func (r *repo) ReplaceSubtitleSegments(ctx context.Context, transcriptionId uuid.UUID, segments []*entities.SubtitleSegment) error {
	return r.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transcription_id = ?", transcriptionId).Delete(&entities.SubtitleSegment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.Create(segments).Error
	})
}

func (r *repo) GetSubtitleSegments(ctx context.Context, transcriptionId uuid.UUID) ([]*entities.SubtitleSegment, error) {
	var segments []*entities.SubtitleSegment
	err := r.GetDB().Where("transcription_id = ?", transcriptionId).Order("idx ASC").Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (r *repo) ReplaceTranslatedSegments(ctx context.Context, transcriptionId uuid.UUID, language string, segments []*entities.TranslatedSegment) error {
	return r.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transcription_id = ? AND language = ?", transcriptionId, language).Delete(&entities.TranslatedSegment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.Create(segments).Error
	})
}

func (r *repo) GetTranslatedSegments(ctx context.Context, transcriptionId uuid.UUID, language string) ([]*entities.TranslatedSegment, error) {
	var segments []*entities.TranslatedSegment
	err := r.GetDB().Where("transcription_id = ? AND language = ?", transcriptionId, language).Order("idx ASC").Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// DeleteTranscription removes a transcription and all child segment
// rows, native and translated.
func (r *repo) DeleteTranscription(ctx context.Context, transcriptionId uuid.UUID) error {
	return r.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transcription_id = ?", transcriptionId).Delete(&entities.TranslatedSegment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("transcription_id = ?", transcriptionId).Delete(&entities.SubtitleSegment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Transcription{}, "id = ?", transcriptionId).Error
	})
}
