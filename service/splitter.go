package service

import (
	"strings"

	"subtitle-worker/dto"
)

// Split defaults. The 15 chars/second fallback covers spans whose
// recognized duration is zero; it has not been recalibrated against
// real data.
const (
	DefaultMaxCharsPerLine = 42
	DefaultMaxLines        = 2
	DefaultMinDuration     = 1.0
	fallbackCharsPerSecond = 15.0
)

var (
	sentenceBreaks = []string{". ", "! ", "? "}
	clauseBreaks   = []string{", ", "; ", ": ", " - "}
)

type SplitOptions struct {
	MaxCharsPerLine int
	MaxLines        int
	MinDuration     float64
}

func (o SplitOptions) withDefaults() SplitOptions {
	if o.MaxCharsPerLine == 0 {
		o.MaxCharsPerLine = DefaultMaxCharsPerLine
	}
	if o.MaxLines == 0 {
		o.MaxLines = DefaultMaxLines
	}
	if o.MinDuration == 0 {
		o.MinDuration = DefaultMinDuration
	}
	return o
}

func (o SplitOptions) validate() error {
	if o.MaxCharsPerLine < 1 {
		return &ValidationError{Field: "maxCharsPerLine", Reason: "must be positive"}
	}
	if o.MaxLines < 1 {
		return &ValidationError{Field: "maxLines", Reason: "must be positive"}
	}
	if o.MinDuration < 0 {
		return &ValidationError{Field: "minDuration", Reason: "must not be negative"}
	}
	return nil
}

// SplitSegment converts one recognized-speech span into subtitle-length
// spans. Spans that already fit come back unchanged. Timing of the
// chunks is proportional to their text length at the span's own
// chars-per-second rate; chunks are chained start-to-end and the final
// chunk absorbs rounding so the original end time is preserved exactly.
func SplitSegment(segment dto.RawSegment, opts SplitOptions) ([]dto.RawSegment, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	budget := opts.MaxCharsPerLine * opts.MaxLines
	text := strings.TrimSpace(segment.Text)
	runes := []rune(text)
	if len(runes) <= budget {
		return []dto.RawSegment{segment}, nil
	}

	duration := segment.Duration()
	charsPerSecond := fallbackCharsPerSecond
	if duration > 0 {
		charsPerSecond = float64(len(runes)) / duration
	}

	chunks := chunkText(runes, budget)

	out := make([]dto.RawSegment, 0, len(chunks))
	start := segment.Start
	for i, chunk := range chunks {
		chunkDuration := float64(len(chunk)) / charsPerSecond
		if chunkDuration < opts.MinDuration {
			chunkDuration = opts.MinDuration
		}
		end := start + chunkDuration
		if end > segment.End {
			end = segment.End
		}
		if i == len(chunks)-1 {
			end = segment.End
		}
		out = append(out, dto.RawSegment{
			Start:      start,
			End:        end,
			Text:       strings.TrimSpace(string(chunk)),
			Confidence: segment.Confidence,
		})
		start = end
	}
	return out, nil
}

// SplitAll splits a whole batch and renumbers nothing itself: the
// returned order is the display order, so a caller assigning indexes
// walks the slice once.
func SplitAll(segments []dto.RawSegment, opts SplitOptions) ([]dto.RawSegment, error) {
	out := make([]dto.RawSegment, 0, len(segments))
	for _, segment := range segments {
		split, err := SplitSegment(segment, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, split...)
	}
	return out, nil
}

// chunkText carves the rune slice into display-sized pieces. The last
// two pieces are balanced near the midpoint so the batch never ends in
// a stub chunk.
func chunkText(runes []rune, budget int) [][]rune {
	var chunks [][]rune
	remaining := runes
	for len(remaining) > budget {
		var cut int
		if len(remaining) <= 2*budget {
			cut = balancedCut(remaining, budget)
		} else {
			cut = greedyCut(remaining, budget)
		}
		chunks = append(chunks, remaining[:cut])
		remaining = trimLeadingSpace(remaining[cut:])
	}
	if len(remaining) > 0 {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// greedyCut finds the best split point inside the first budget runes,
// preferring sentence ends, then clause breaks, then word boundaries,
// then any space, then a hard cut.
func greedyCut(runes []rune, budget int) int {
	window := string(runes[:budget])

	if cut := lastBreak(window, sentenceBreaks, budget*30/100); cut > 0 {
		return cut
	}
	if cut := lastBreak(window, clauseBreaks, budget*40/100); cut > 0 {
		return cut
	}
	if cut := lastSpace(window, budget*50/100); cut > 0 {
		return cut
	}
	if cut := lastSpace(window, 1); cut > 0 {
		return cut
	}
	return budget
}

// balancedCut splits text that fits in two chunks near its midpoint,
// keeping both halves under budget and avoiding a very short tail. The
// same punctuation-over-space preference applies inside the window.
func balancedCut(runes []rune, budget int) int {
	length := len(runes)
	mid := length / 2
	window := length / 4
	if window > 20 {
		window = 20
	}
	lo := mid - window
	if lo < 1 {
		lo = 1
	}
	hi := mid + window
	if hi > length-1 {
		hi = length - 1
	}

	text := string(runes)
	best := -1
	bestClass := 3
	bestDistance := length
	for i := lo; i <= hi; i++ {
		var class int
		switch {
		case breakAt(text, i, sentenceBreaks):
			class = 0
		case breakAt(text, i, clauseBreaks):
			class = 1
		case runes[i] == ' ':
			class = 2
		default:
			continue
		}
		if i > budget || length-i-1 > budget {
			continue
		}
		distance := i - mid
		if distance < 0 {
			distance = -distance
		}
		if class < bestClass || (class == bestClass && distance < bestDistance) {
			best = i
			bestClass = class
			bestDistance = distance
		}
	}
	if best > 0 {
		return best
	}
	return greedyCut(runes, budget)
}

// breakAt reports whether one of the break markers ends exactly at
// rune index i, i.e. cutting at i keeps the punctuation on the left.
func breakAt(text string, i int, markers []string) bool {
	runes := []rune(text)
	if i <= 0 || i >= len(runes) {
		return false
	}
	prefix := string(runes[:i+1])
	for _, marker := range markers {
		if strings.HasSuffix(prefix, marker) {
			return true
		}
	}
	return false
}

// lastBreak returns the cut index just after the latest break marker
// at or beyond minIndex, or 0 if none qualifies.
func lastBreak(window string, markers []string, minIndex int) int {
	best := 0
	for _, marker := range markers {
		idx := strings.LastIndex(window, marker)
		for idx >= 0 {
			markerRunes := len([]rune(marker))
			cut := len([]rune(window[:idx])) + markerRunes - 1
			if cut >= minIndex && cut > best {
				best = cut
			}
			idx = strings.LastIndex(window[:idx], marker)
		}
	}
	return best
}

// lastSpace returns the index of the latest space at or beyond
// minIndex, or 0 if none qualifies.
func lastSpace(window string, minIndex int) int {
	runes := []rune(window)
	for i := len(runes) - 1; i >= minIndex; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return 0
}

func trimLeadingSpace(runes []rune) []rune {
	for len(runes) > 0 && runes[0] == ' ' {
		runes = runes[1:]
	}
	return runes
}
