package entities

import (
	"time"

	"github.com/google/uuid"
)

// SubtitleSegment is one display-ready cue. Text may contain a single
// internal "\n" inserted by line balancing.
type SubtitleSegment struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptionId uuid.UUID `json:"transcription_id" gorm:"type:uuid;not null;index:idx_subtitle_segments_transcription"`
	Idx             int       `json:"idx" gorm:"not null"`
	StartTime       float64   `json:"start_time" gorm:"type:double precision;not null"`
	EndTime         float64   `json:"end_time" gorm:"type:double precision;not null"`
	Text            string    `json:"text" gorm:"type:text;not null"`
	Confidence      *float64  `json:"confidence" gorm:"type:double precision"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (SubtitleSegment) TableName() string {
	return "subtitle_segments"
}
