package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ProcessMessage asks the worker to derive streaming artifacts for one
// uploaded media file. ObjectPath is the storage key of the original.
type ProcessMessage struct {
	FileId     uuid.UUID `json:"fileId"`
	OwnerId    uuid.UUID `json:"ownerId"`
	ObjectPath string    `json:"objectPath"`
	FileName   string    `json:"fileName"`
}

// TranscriptionMessage delivers a speech-recognition provider result
// for one transcription. The payload is the provider's own shape; the
// worker normalizes it at the boundary.
type TranscriptionMessage struct {
	TranscriptionId uuid.UUID       `json:"transcriptionId"`
	ProviderResult  json.RawMessage `json:"providerResult"`
}

// TranslateMessage delivers provider-translated cue texts for one
// transcription and target language, parallel to the stored segments.
type TranslateMessage struct {
	TranscriptionId uuid.UUID `json:"transcriptionId"`
	TargetLanguage  string    `json:"targetLanguage"`
	Texts           []string  `json:"texts"`
}

// RawSegment is one recognized-speech span as normalized from a
// provider response. Immutable input to splitting.
type RawSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Duration returns the span length in seconds.
func (s RawSegment) Duration() float64 {
	return s.End - s.Start
}

// StatusSnapshot is the read-only view served to polling clients.
type StatusSnapshot struct {
	FileId       uuid.UUID `json:"fileId"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	Error        string    `json:"error,omitempty"`
	OriginalUrl  string    `json:"originalUrl,omitempty"`
	PreviewUrl   string    `json:"previewUrl,omitempty"`
	ThumbnailUrl string    `json:"thumbnailUrl,omitempty"`
	AudioUrl     string    `json:"audioUrl,omitempty"`
}
