package entities

import (
	"time"

	"github.com/google/uuid"
)

type Transcription struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MediaFileId uuid.UUID `json:"media_file_id" gorm:"type:uuid;not null;index:idx_transcriptions_media_file_id"`
	Language    string    `json:"language" gorm:"type:varchar(10);not null"`
	Provider    string    `json:"provider" gorm:"type:varchar(50)"`
	CreatedAt   time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Transcription) TableName() string {
	return "transcriptions"
}
