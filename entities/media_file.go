package entities

import (
	"time"

	"github.com/google/uuid"

	"subtitle-worker/constant"
)

type MediaFile struct {
	ID           uuid.UUID            `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerId      uuid.UUID            `json:"owner_id" gorm:"type:uuid;not null;index:idx_media_files_owner_id"`
	MediaType    constant.MediaType   `json:"media_type" gorm:"type:varchar(10);not null"`
	SizeBytes    int64                `json:"size_bytes" gorm:"type:bigint;not null"`
	Duration     *float64             `json:"duration" gorm:"type:double precision"`
	OriginalUrl  string               `json:"original_url" gorm:"type:varchar(500);not null"`
	PreviewUrl   *string              `json:"preview_url" gorm:"type:varchar(500)"`
	ThumbnailUrl *string              `json:"thumbnail_url" gorm:"type:varchar(500)"`
	AudioUrl     *string              `json:"audio_url" gorm:"type:varchar(500)"`
	Status       constant.MediaStatus `json:"status" gorm:"type:varchar(20);not null;default:'uploading';index:idx_media_files_status"`
	Progress     int                  `json:"progress" gorm:"type:integer;not null;default:0"`
	Error        *string              `json:"error" gorm:"type:text"`
	CreatedAt    time.Time            `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time            `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (MediaFile) TableName() string {
	return "media_files"
}

// DerivedArtifacts carries the outputs of a completed processing job.
// Empty URL fields are left untouched on the row (audio uploads never
// have preview or thumbnail artifacts).
type DerivedArtifacts struct {
	Duration     float64
	PreviewUrl   string
	ThumbnailUrl string
	AudioUrl     string
}
