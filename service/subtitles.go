package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"subtitle-worker/entities"
	"subtitle-worker/repository"
)

// SubtitleService turns normalized recognition output into stored,
// display-ready cues and serves exports of them.
type SubtitleService interface {
	StoreTranscription(ctx context.Context, transcriptionId uuid.UUID, providerBody []byte, opts SplitOptions) ([]*entities.SubtitleSegment, error)
	StoreTranslation(ctx context.Context, transcriptionId uuid.UUID, language string, texts []string) error
	Export(ctx context.Context, transcriptionId uuid.UUID, language string, format ExportFormat) ([]byte, error)
}

type subtitleService struct {
	repo repository.MediaRepository
}

func NewSubtitleService(repo repository.MediaRepository) SubtitleService {
	return &subtitleService{repo: repo}
}

// StoreTranscription normalizes a provider response, splits overlong
// spans into cue-sized ones, balances their lines and replaces the
// transcription's segment set. Indexes are assigned sequentially after
// all splits are applied.
func (s *subtitleService) StoreTranscription(ctx context.Context, transcriptionId uuid.UUID, providerBody []byte, opts SplitOptions) ([]*entities.SubtitleSegment, error) {
	if _, err := s.repo.FindTranscriptionById(ctx, transcriptionId); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to find transcription")
		return nil, err
	}

	result, err := NormalizeTranscription(providerBody)
	if err != nil {
		return nil, err
	}

	split, err := SplitAll(result.Segments, opts)
	if err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	segments := make([]*entities.SubtitleSegment, 0, len(split))
	for i, cue := range split {
		segments = append(segments, &entities.SubtitleSegment{
			TranscriptionId: transcriptionId,
			Idx:             i + 1,
			StartTime:       cue.Start,
			EndTime:         cue.End,
			Text:            BalanceLines(cue.Text, opts.MaxCharsPerLine),
			Confidence:      cue.Confidence,
		})
	}

	if err := s.repo.ReplaceSubtitleSegments(ctx, transcriptionId, segments); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to store subtitle segments")
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("transcription_id", transcriptionId.String()).
		Int("segment_count", len(segments)).
		Msg("stored subtitle segments")

	return segments, nil
}

// StoreTranslation stores provider-translated texts parallel to the
// transcription's segments. Timing is copied from each source segment
// unchanged, so the translated track keeps the original cue timing.
func (s *subtitleService) StoreTranslation(ctx context.Context, transcriptionId uuid.UUID, language string, texts []string) error {
	if language == "" {
		return &ValidationError{Field: "language", Reason: "must not be empty"}
	}

	source, err := s.repo.GetSubtitleSegments(ctx, transcriptionId)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to load source segments")
		return err
	}
	if len(texts) != len(source) {
		return &ValidationError{
			Field:  "texts",
			Reason: fmt.Sprintf("got %d translations for %d segments", len(texts), len(source)),
		}
	}

	translated := make([]*entities.TranslatedSegment, 0, len(source))
	for i, segment := range source {
		translated = append(translated, &entities.TranslatedSegment{
			TranscriptionId: transcriptionId,
			Language:        language,
			Idx:             segment.Idx,
			SourceSegmentId: segment.ID,
			StartTime:       segment.StartTime,
			EndTime:         segment.EndTime,
			Text:            BalanceLines(texts[i], DefaultMaxCharsPerLine),
		})
	}

	if err := s.repo.ReplaceTranslatedSegments(ctx, transcriptionId, language, translated); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to store translated segments")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("transcription_id", transcriptionId.String()).
		Str("language", language).
		Int("segment_count", len(translated)).
		Msg("stored translated segments")

	return nil
}

// Export serializes a transcription's segments, native or translated,
// into the requested subtitle format.
func (s *subtitleService) Export(ctx context.Context, transcriptionId uuid.UUID, language string, format ExportFormat) ([]byte, error) {
	var segments []*entities.SubtitleSegment
	if language == "" {
		native, err := s.repo.GetSubtitleSegments(ctx, transcriptionId)
		if err != nil {
			return nil, err
		}
		segments = native
	} else {
		translated, err := s.repo.GetTranslatedSegments(ctx, transcriptionId, language)
		if err != nil {
			return nil, err
		}
		segments = make([]*entities.SubtitleSegment, 0, len(translated))
		for _, t := range translated {
			segments = append(segments, &entities.SubtitleSegment{
				TranscriptionId: t.TranscriptionId,
				Idx:             t.Idx,
				StartTime:       t.StartTime,
				EndTime:         t.EndTime,
				Text:            t.Text,
			})
		}
	}
	return Export(segments, format)
}
