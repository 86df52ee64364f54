package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"subtitle-worker/dto"
)

// providerSegment is the whisper-style verbose segment shape. It never
// leaks past this adapter: everything downstream works on
// dto.RawSegment.
type providerSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	AvgLogProb *float64 `json:"avg_logprob,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type providerResponse struct {
	Language string            `json:"language"`
	Duration float64           `json:"duration"`
	Segments []providerSegment `json:"segments"`
}

// TranscriptionResult is the normalized output of one recognition run.
type TranscriptionResult struct {
	Language string
	Duration float64
	Segments []dto.RawSegment
}

// NormalizeTranscription converts a raw provider response body into
// the internal transcription shape. Spans with empty text or
// non-positive duration are dropped; whisper log-probabilities are
// mapped onto a 0..1 confidence.
func NormalizeTranscription(body []byte) (*TranscriptionResult, error) {
	var response providerResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	segments := make([]dto.RawSegment, 0, len(response.Segments))
	for _, segment := range response.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" || segment.End <= segment.Start {
			continue
		}
		segments = append(segments, dto.RawSegment{
			Start:      segment.Start,
			End:        segment.End,
			Text:       text,
			Confidence: providerConfidence(segment),
		})
	}

	return &TranscriptionResult{
		Language: response.Language,
		Duration: response.Duration,
		Segments: segments,
	}, nil
}

func providerConfidence(segment providerSegment) *float64 {
	if segment.Confidence != nil {
		return segment.Confidence
	}
	if segment.AvgLogProb == nil {
		return nil
	}
	confidence := math.Exp(*segment.AvgLogProb)
	if confidence > 1 {
		confidence = 1
	}
	return &confidence
}
