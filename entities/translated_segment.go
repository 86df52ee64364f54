package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranslatedSegment mirrors one SubtitleSegment in a target language,
// keyed by (transcription, language, idx). Timing is copied from the
// source segment unchanged.
type TranslatedSegment struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptionId uuid.UUID `json:"transcription_id" gorm:"type:uuid;not null;index:idx_translated_segments_key"`
	Language        string    `json:"language" gorm:"type:varchar(10);not null;index:idx_translated_segments_key"`
	Idx             int       `json:"idx" gorm:"not null"`
	SourceSegmentId uuid.UUID `json:"source_segment_id" gorm:"type:uuid;not null"`
	StartTime       float64   `json:"start_time" gorm:"type:double precision;not null"`
	EndTime         float64   `json:"end_time" gorm:"type:double precision;not null"`
	Text            string    `json:"text" gorm:"type:text;not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (TranslatedSegment) TableName() string {
	return "translated_segments"
}
