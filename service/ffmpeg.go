package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"subtitle-worker/config"
)

// Fixed quality targets. These trade encode speed against preview
// streaming quality and transcription input quality; they are not
// per-call parameters.
const (
	previewHeight      = 480
	previewCRF         = "28"
	previewPreset      = "veryfast"
	previewAudioRate   = "128k"
	speechSampleRate   = "16000"
	speechBitrate      = "32k"
	thumbnailMaxWidth  = 640
	defaultThumbnailAt = 25
)

// maxToolOutput bounds how much codec stderr/stdout is retained for
// error messages.
const maxToolOutput = 64 * 1024

// MediaInfo is the parsed result of probing one source file.
type MediaInfo struct {
	Duration  float64
	Width     int
	Height    int
	Codec     string
	BitRate   int64
	Container string
	Size      int64
	HasVideo  bool
	HasAudio  bool
}

// TranscodeResult describes one derived artifact on disk.
type TranscodeResult struct {
	OutPath  string
	Size     int64
	Duration float64
}

// Transcoder wraps the external codec tools. Every invocation runs
// with an explicit argument list, a bounded output buffer and a
// wall-clock timeout.
type Transcoder struct {
	ffmpegBin  string
	ffprobeBin string
	timeout    time.Duration
}

func NewTranscoder(cfg config.Media) *Transcoder {
	ffmpegBin := cfg.FFmpegBin
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	ffprobeBin := cfg.FFprobeBin
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Transcoder{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		timeout:    timeout,
	}
}

type probeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// Probe inspects one source file with ffprobe and decodes its JSON
// report.
func (t *Transcoder) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	}
	output, err := t.run(ctx, t.ffprobeBin, args)
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}

	var parsed probeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, &ProbeError{Path: path, Err: fmt.Errorf("parse probe output: %w", err)}
	}

	info := &MediaInfo{
		Duration:  parseProbeFloat(parsed.Format.Duration),
		BitRate:   int64(parseProbeFloat(parsed.Format.BitRate)),
		Size:      int64(parseProbeFloat(parsed.Format.Size)),
		Container: parsed.Format.FormatName,
	}
	for _, stream := range parsed.Streams {
		switch {
		case strings.EqualFold(stream.CodecType, "video"):
			info.HasVideo = true
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
				info.Codec = stream.CodecName
			}
		case strings.EqualFold(stream.CodecType, "audio"):
			info.HasAudio = true
			if info.Codec == "" {
				info.Codec = stream.CodecName
			}
		}
	}
	if info.Duration <= 0 {
		return nil, &ProbeError{Path: path, Err: fmt.Errorf("no duration in probe output")}
	}
	return info, nil
}

// HasVideoStream reports whether the file carries at least one video
// stream. Used to branch the video-only pipeline steps.
func (t *Transcoder) HasVideoStream(ctx context.Context, path string) (bool, error) {
	info, err := t.Probe(ctx, path)
	if err != nil {
		return false, err
	}
	return info.HasVideo, nil
}

// ToPreview re-encodes the source into a 480p streaming preview. Width
// is auto-computed to keep the aspect ratio and stay even; moov atom
// is moved up front for progressive playback.
func (t *Transcoder) ToPreview(ctx context.Context, inputPath, outputPath string) (*TranscodeResult, error) {
	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", previewHeight),
		"-c:v", "libx264",
		"-preset", previewPreset,
		"-crf", previewCRF,
		"-c:a", "aac",
		"-b:a", previewAudioRate,
		"-movflags", "+faststart",
		outputPath,
	}
	if _, err := t.run(ctx, t.ffmpegBin, args); err != nil {
		_ = os.Remove(outputPath)
		return nil, &TranscodeError{Op: "preview", Err: err}
	}
	return t.result(ctx, outputPath)
}

// ExtractAudio downmixes to mono 16 kHz at a low bitrate. The output
// is tuned for speech recognition input, not listening quality.
func (t *Transcoder) ExtractAudio(ctx context.Context, inputPath, outputPath string) (*TranscodeResult, error) {
	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", speechSampleRate,
		"-b:a", speechBitrate,
		outputPath,
	}
	if _, err := t.run(ctx, t.ffmpegBin, args); err != nil {
		_ = os.Remove(outputPath)
		return nil, &TranscodeError{Op: "extract audio", Err: err}
	}
	return t.result(ctx, outputPath)
}

// ExtractThumbnail grabs a single frame at percent of the way through
// the source and scales it to a capped width. Callers treat failure
// here as non-fatal.
func (t *Transcoder) ExtractThumbnail(ctx context.Context, inputPath, outputPath string, percent int) (*TranscodeResult, error) {
	if percent <= 0 || percent >= 100 {
		percent = defaultThumbnailAt
	}
	info, err := t.Probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	seekTo := info.Duration * float64(percent) / 100

	args := []string{
		"-y",
		"-ss", formatSeconds(seekTo),
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':-2", thumbnailMaxWidth),
		outputPath,
	}
	if _, err := t.run(ctx, t.ffmpegBin, args); err != nil {
		_ = os.Remove(outputPath)
		return nil, &TranscodeError{Op: "thumbnail", Err: err}
	}

	stat, err := os.Stat(outputPath)
	if err != nil {
		return nil, &TranscodeError{Op: "thumbnail", Err: err}
	}
	return &TranscodeResult{OutPath: outputPath, Size: stat.Size()}, nil
}

func (t *Transcoder) result(ctx context.Context, outputPath string) (*TranscodeResult, error) {
	stat, err := os.Stat(outputPath)
	if err != nil {
		return nil, &TranscodeError{Op: "stat output", Err: err}
	}
	info, err := t.Probe(ctx, outputPath)
	if err != nil {
		return nil, err
	}
	return &TranscodeResult{
		OutPath:  outputPath,
		Size:     stat.Size(),
		Duration: info.Duration,
	}, nil
}

// run executes one codec invocation under the configured wall-clock
// timeout. A timeout kills the process and surfaces as an error.
func (t *Transcoder) run(ctx context.Context, binary string, args []string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) > maxToolOutput {
			output = output[len(output)-maxToolOutput:]
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out after %s", binary, t.timeout)
		}
		return nil, fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func parseProbeFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
