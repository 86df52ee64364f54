package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"subtitle-worker/constant"
	"subtitle-worker/entities"
)

// fakeRepo keeps segment batches in memory for service tests.
type fakeRepo struct {
	transcriptions map[uuid.UUID]*entities.Transcription
	segments       map[uuid.UUID][]*entities.SubtitleSegment
	translated     map[string][]*entities.TranslatedSegment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		transcriptions: make(map[uuid.UUID]*entities.Transcription),
		segments:       make(map[uuid.UUID][]*entities.SubtitleSegment),
		translated:     make(map[string][]*entities.TranslatedSegment),
	}
}

func (f *fakeRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (f *fakeRepo) GetDB() *gorm.DB { return nil }

func (f *fakeRepo) FindMediaFileById(ctx context.Context, id uuid.UUID) (*entities.MediaFile, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRepo) UpdateMediaStatus(ctx context.Context, id uuid.UUID, status constant.MediaStatus) error {
	return nil
}

func (f *fakeRepo) UpdateMediaProgress(ctx context.Context, id uuid.UUID, progress int) error {
	return nil
}

func (f *fakeRepo) MarkMediaError(ctx context.Context, id uuid.UUID, message string) error {
	return nil
}

func (f *fakeRepo) MarkMediaReady(ctx context.Context, id uuid.UUID, artifacts entities.DerivedArtifacts) error {
	return nil
}

func (f *fakeRepo) FindTranscriptionById(ctx context.Context, id uuid.UUID) (*entities.Transcription, error) {
	transcription, ok := f.transcriptions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return transcription, nil
}

func (f *fakeRepo) ReplaceSubtitleSegments(ctx context.Context, transcriptionId uuid.UUID, segments []*entities.SubtitleSegment) error {
	for _, segment := range segments {
		if segment.ID == uuid.Nil {
			segment.ID = uuid.New()
		}
	}
	f.segments[transcriptionId] = segments
	return nil
}

func (f *fakeRepo) GetSubtitleSegments(ctx context.Context, transcriptionId uuid.UUID) ([]*entities.SubtitleSegment, error) {
	return f.segments[transcriptionId], nil
}

func (f *fakeRepo) ReplaceTranslatedSegments(ctx context.Context, transcriptionId uuid.UUID, language string, segments []*entities.TranslatedSegment) error {
	f.translated[transcriptionId.String()+"/"+language] = segments
	return nil
}

func (f *fakeRepo) GetTranslatedSegments(ctx context.Context, transcriptionId uuid.UUID, language string) ([]*entities.TranslatedSegment, error) {
	return f.translated[transcriptionId.String()+"/"+language], nil
}

func (f *fakeRepo) DeleteTranscription(ctx context.Context, transcriptionId uuid.UUID) error {
	delete(f.segments, transcriptionId)
	return nil
}

const providerBody = `{
	"language": "en",
	"duration": 10,
	"segments": [
		{"start": 0, "end": 4, "text": "This is a moderately long line of subtitle text that exceeds forty two characters easily"},
		{"start": 4, "end": 6, "text": "Short cue."}
	]
}`

func TestStoreTranscriptionSplitsAndNumbers(t *testing.T) {
	repo := newFakeRepo()
	transcriptionId := uuid.New()
	repo.transcriptions[transcriptionId] = &entities.Transcription{ID: transcriptionId, Language: "en"}

	svc := NewSubtitleService(repo)
	segments, err := svc.StoreTranscription(context.Background(), transcriptionId, []byte(providerBody), SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) < 3 {
		t.Fatalf("expected long span split plus short cue, got %d segments", len(segments))
	}
	for i, segment := range segments {
		if segment.Idx != i+1 {
			t.Fatalf("segment %d has idx %d, want sequential numbering", i, segment.Idx)
		}
		for _, line := range strings.Split(segment.Text, "\n") {
			if len([]rune(line)) > DefaultMaxCharsPerLine {
				t.Fatalf("unbalanced line in segment %d: %q", i, line)
			}
		}
	}
	if segments[len(segments)-1].EndTime != 6 {
		t.Fatalf("last segment end = %v, want 6", segments[len(segments)-1].EndTime)
	}
}

func TestStoreTranscriptionUnknownId(t *testing.T) {
	svc := NewSubtitleService(newFakeRepo())
	if _, err := svc.StoreTranscription(context.Background(), uuid.New(), []byte(providerBody), SplitOptions{}); err == nil {
		t.Fatal("expected error for unknown transcription")
	}
}

func TestStoreTranslationKeepsTiming(t *testing.T) {
	repo := newFakeRepo()
	transcriptionId := uuid.New()
	repo.transcriptions[transcriptionId] = &entities.Transcription{ID: transcriptionId, Language: "en"}

	svc := NewSubtitleService(repo)
	segments, err := svc.StoreTranscription(context.Background(), transcriptionId, []byte(providerBody), SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	texts := make([]string, len(segments))
	for i := range texts {
		texts[i] = "Übersetzter Text"
	}
	if err := svc.StoreTranslation(context.Background(), transcriptionId, "de", texts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	translated, err := repo.GetTranslatedSegments(context.Background(), transcriptionId, "de")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(translated) != len(segments) {
		t.Fatalf("expected %d translated segments, got %d", len(segments), len(translated))
	}
	for i, segment := range translated {
		if segment.StartTime != segments[i].StartTime || segment.EndTime != segments[i].EndTime {
			t.Fatalf("timing drifted on segment %d", i)
		}
		if segment.SourceSegmentId != segments[i].ID {
			t.Fatalf("segment %d does not point back to its source", i)
		}
		if segment.Language != "de" {
			t.Fatalf("segment %d has language %q", i, segment.Language)
		}
	}
}

func TestStoreTranslationCountMismatch(t *testing.T) {
	repo := newFakeRepo()
	transcriptionId := uuid.New()
	repo.transcriptions[transcriptionId] = &entities.Transcription{ID: transcriptionId, Language: "en"}

	svc := NewSubtitleService(repo)
	if _, err := svc.StoreTranscription(context.Background(), transcriptionId, []byte(providerBody), SplitOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.StoreTranslation(context.Background(), transcriptionId, "de", []string{"only one"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExportTranslatedTrack(t *testing.T) {
	repo := newFakeRepo()
	transcriptionId := uuid.New()
	repo.transcriptions[transcriptionId] = &entities.Transcription{ID: transcriptionId, Language: "en"}

	svc := NewSubtitleService(repo)
	segments, err := svc.StoreTranscription(context.Background(), transcriptionId, []byte(providerBody), SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	texts := make([]string, len(segments))
	for i := range texts {
		texts[i] = "Hallo"
	}
	if err := svc.StoreTranslation(context.Background(), transcriptionId, "de", texts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	srt, err := svc.Export(context.Background(), transcriptionId, "de", FormatSRT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(srt), "Hallo") {
		t.Fatalf("translated text missing from export:\n%s", srt)
	}

	native, err := svc.Export(context.Background(), transcriptionId, "", FormatVTT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(native), "WEBVTT") {
		t.Fatalf("native export missing VTT header:\n%s", native)
	}
}
