package service

import (
	"math"
	"strings"
	"testing"

	"subtitle-worker/dto"
)

func TestSplitSegmentShortTextUnchanged(t *testing.T) {
	segment := dto.RawSegment{Start: 1.5, End: 3.5, Text: "Short enough to display."}
	out, err := SplitSegment(segment, SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(out))
	}
	if out[0] != segment {
		t.Fatalf("expected segment unchanged, got %+v", out[0])
	}
}

func TestSplitSegmentLongLine(t *testing.T) {
	segment := dto.RawSegment{
		Start: 0,
		End:   4,
		Text:  "This is a moderately long line of subtitle text that exceeds forty two characters easily",
	}
	out, err := SplitSegment(segment, SplitOptions{MaxCharsPerLine: 42, MaxLines: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(out))
	}
	for i, chunk := range out {
		if length := len([]rune(chunk.Text)); length > 84 {
			t.Fatalf("chunk %d has %d chars, want <= 84: %q", i, length, chunk.Text)
		}
	}
	if out[0].Start != 0 {
		t.Fatalf("first chunk start = %v, want 0", out[0].Start)
	}
	if out[len(out)-1].End != 4 {
		t.Fatalf("last chunk end = %v, want 4", out[len(out)-1].End)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Start != out[i-1].End {
			t.Fatalf("chunk %d start %v does not meet previous end %v", i, out[i].Start, out[i-1].End)
		}
	}
}

func TestSplitSegmentPreservesText(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("the quick brown fox jumps over the lazy dog ", 8))
	segment := dto.RawSegment{Start: 10, End: 40, Text: text}
	out, err := SplitSegment(segment, SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parts := make([]string, 0, len(out))
	for _, chunk := range out {
		parts = append(parts, chunk.Text)
	}
	if rejoined := strings.Join(parts, " "); rejoined != text {
		t.Fatalf("rejoined text differs:\nwant %q\ngot  %q", text, rejoined)
	}
}

func TestSplitSegmentMinDuration(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 60))
	segment := dto.RawSegment{Start: 0, End: 60, Text: text}
	out, err := SplitSegment(segment, SplitOptions{MinDuration: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, chunk := range out {
		if chunk.End-chunk.Start < 2 {
			t.Fatalf("chunk %d duration %v below minimum", i, chunk.End-chunk.Start)
		}
	}
}

func TestSplitSegmentZeroDurationFallback(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("steady words flowing onward ", 6))
	segment := dto.RawSegment{Start: 5, End: 5, Text: text}
	out, err := SplitSegment(segment, SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Fallback rate applies; chunks still span exactly the original
	// (empty) range without overlapping.
	if out[0].Start != 5 || out[len(out)-1].End != 5 {
		t.Fatalf("expected chunks to stay within [5,5], got [%v,%v]", out[0].Start, out[len(out)-1].End)
	}
}

func TestSplitSegmentPrefersSentenceBreak(t *testing.T) {
	text := "She opened the door slowly and looked outside into the dark. Then the storm arrived with thunder and heavy rain falling everywhere around the old house while everyone hurried inside to find shelter from the cold"
	segment := dto.RawSegment{Start: 0, End: 10, Text: text}
	out, err := SplitSegment(segment, SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(out))
	}
	if !strings.HasSuffix(out[0].Text, ".") {
		t.Fatalf("expected first chunk to end at sentence boundary, got %q", out[0].Text)
	}
}

func TestSplitSegmentBalancedTail(t *testing.T) {
	// Fits in two chunks: the split should land near the midpoint, not
	// leave a stub tail.
	text := strings.TrimSpace(strings.Repeat("evenly spaced words here ", 5))
	segment := dto.RawSegment{Start: 0, End: 8, Text: text}
	out, err := SplitSegment(segment, SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out))
	}
	first := len([]rune(out[0].Text))
	second := len([]rune(out[1].Text))
	if diff := math.Abs(float64(first - second)); diff > 25 {
		t.Fatalf("chunks badly unbalanced: %d vs %d chars", first, second)
	}
}

func TestSplitSegmentInvalidOptions(t *testing.T) {
	segment := dto.RawSegment{Start: 0, End: 1, Text: "hello"}
	if _, err := SplitSegment(segment, SplitOptions{MaxCharsPerLine: -1}); err == nil {
		t.Fatal("expected validation error for negative maxCharsPerLine")
	}
	if _, err := SplitSegment(segment, SplitOptions{MinDuration: -0.5}); err == nil {
		t.Fatal("expected validation error for negative minDuration")
	}
}

func TestSplitAllKeepsBatchOrder(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("many words in this span ", 6))
	segments := []dto.RawSegment{
		{Start: 0, End: 2, Text: "First cue."},
		{Start: 2, End: 8, Text: long},
		{Start: 8, End: 9, Text: "Last cue."},
	}
	out, err := SplitAll(segments, SplitOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) < 4 {
		t.Fatalf("expected middle segment to split, got %d total", len(out))
	}
	if out[0].Text != "First cue." {
		t.Fatalf("first segment moved: %q", out[0].Text)
	}
	if out[len(out)-1].Text != "Last cue." {
		t.Fatalf("last segment moved: %q", out[len(out)-1].Text)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Start < out[i-1].Start {
			t.Fatalf("batch order broken at %d", i)
		}
	}
}
