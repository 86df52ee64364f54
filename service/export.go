package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"subtitle-worker/entities"
)

// ExportFormat selects a subtitle serialization.
type ExportFormat string

const (
	FormatSRT  ExportFormat = "srt"
	FormatVTT  ExportFormat = "vtt"
	FormatASS  ExportFormat = "ass"
	FormatText ExportFormat = "txt"
	FormatJSON ExportFormat = "json"
)

// ExportStyle carries the rendering parameters written into the ASS
// header block.
type ExportStyle struct {
	FontName     string
	FontSize     int
	PrimaryColor string
	Opacity      int
	Padding      int
}

func defaultExportStyle() ExportStyle {
	return ExportStyle{
		FontName:     "Arial",
		FontSize:     24,
		PrimaryColor: "#FFFFFF",
		Opacity:      100,
		Padding:      50,
	}
}

// Export serializes segments into the requested format.
func Export(segments []*entities.SubtitleSegment, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatSRT:
		return []byte(ExportSRT(segments)), nil
	case FormatVTT:
		return []byte(ExportVTT(segments)), nil
	case FormatASS:
		return ExportASS(segments, defaultExportStyle())
	case FormatText:
		return []byte(ExportText(segments, false)), nil
	case FormatJSON:
		return ExportJSON(segments)
	default:
		return nil, &ValidationError{Field: "format", Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

// ExportSRT writes SubRip cues with HH:MM:SS,mmm timestamps.
func ExportSRT(segments []*entities.SubtitleSegment) string {
	var b strings.Builder
	for i, segment := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatSRTTimestamp(segment.StartTime), FormatSRTTimestamp(segment.EndTime))
		b.WriteString(segment.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ExportVTT writes WebVTT with HH:MM:SS.mmm timestamps.
func ExportVTT(segments []*entities.SubtitleSegment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, segment := range segments {
		fmt.Fprintf(&b, "%s --> %s\n", formatVTTTimestamp(segment.StartTime), formatVTTTimestamp(segment.EndTime))
		b.WriteString(segment.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ExportASS writes a styled subtitle script with H:MM:SS.cc timestamps
// and a header block carrying the style fields.
func ExportASS(segments []*entities.SubtitleSegment, style ExportStyle) ([]byte, error) {
	color, err := ASSColor(style.PrimaryColor, style.Opacity)
	if err != nil {
		return nil, err
	}
	padding, err := BoxPadding(style.FontSize, style.Padding)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("WrapStyle: 0\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, MarginL, MarginR, MarginV\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,%d,%d,%d\n\n",
		style.FontName, style.FontSize, color, padding, padding, padding)
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Text\n")
	for _, segment := range segments {
		text := strings.ReplaceAll(segment.Text, "\n", "\\N")
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,%s\n",
			formatASSTimestamp(segment.StartTime), formatASSTimestamp(segment.EndTime), text)
	}
	return []byte(b.String()), nil
}

// ExportText writes plain text, one cue per line, optionally prefixed
// with its start timestamp.
func ExportText(segments []*entities.SubtitleSegment, timestamps bool) string {
	var b strings.Builder
	for _, segment := range segments {
		if timestamps {
			fmt.Fprintf(&b, "[%s] ", FormatSRTTimestamp(segment.StartTime))
		}
		b.WriteString(strings.ReplaceAll(segment.Text, "\n", " "))
		b.WriteString("\n")
	}
	return b.String()
}

type jsonSegment struct {
	Index      int      `json:"index"`
	StartTime  float64  `json:"startTime"`
	EndTime    float64  `json:"endTime"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ExportJSON writes the segment list as a JSON array.
func ExportJSON(segments []*entities.SubtitleSegment) ([]byte, error) {
	out := make([]jsonSegment, 0, len(segments))
	for i, segment := range segments {
		out = append(out, jsonSegment{
			Index:      i + 1,
			StartTime:  segment.StartTime,
			EndTime:    segment.EndTime,
			Text:       segment.Text,
			Confidence: segment.Confidence,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm.
func FormatSRTTimestamp(seconds float64) string {
	hours, minutes, secs, millis := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

func formatVTTTimestamp(seconds float64) string {
	hours, minutes, secs, millis := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

// formatASSTimestamp renders seconds as H:MM:SS.cc (centiseconds).
func formatASSTimestamp(seconds float64) string {
	total := int64(math.Round(seconds * 100))
	centis := total % 100
	totalSecs := total / 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", totalSecs/3600, (totalSecs/60)%60, totalSecs%60, centis)
}

func splitTime(seconds float64) (int64, int64, int64, int64) {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	millis := total % 1000
	totalSecs := total / 1000
	return totalSecs / 3600, (totalSecs / 60) % 60, totalSecs % 60, millis
}

// ParseSRTTimestamp converts an SRT or WebVTT timestamp back into
// seconds. Comma and period millisecond separators are both accepted.
func ParseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, &ValidationError{Field: "timestamp", Reason: fmt.Sprintf("want HH:MM:SS,mmm, got %q", value)}
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, &ValidationError{Field: "timestamp", Reason: fmt.Sprintf("bad hours in %q", value)}
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, &ValidationError{Field: "timestamp", Reason: fmt.Sprintf("bad minutes in %q", value)}
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, &ValidationError{Field: "timestamp", Reason: fmt.Sprintf("bad seconds in %q", value)}
	}
	return float64(hours)*3600 + float64(minutes)*60 + secs, nil
}
