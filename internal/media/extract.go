package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExtractionTimeout bounds a single video-to-audio conversion.
const ExtractionTimeout = 5 * time.Minute

type Preset struct {
	BitrateKbps int
	SampleRate  int
}

var presets = map[string]Preset{
	"low":    {BitrateKbps: 128, SampleRate: 44100},
	"medium": {BitrateKbps: 192, SampleRate: 44100},
	"high":   {BitrateKbps: 320, SampleRate: 48000},
}

// Qualities lists the preset names from lowest to highest bitrate.
var Qualities = []string{"low", "medium", "high"}

func LookupPreset(quality string) (Preset, bool) {
	p, ok := presets[quality]
	return p, ok
}

type ExtractRequest struct {
	// InputPath is a local file or an http(s) URL ffmpeg can read.
	InputPath  string
	OutputName string
	OutputDir  string
	Quality    string
}

// Extraction is the result record of ExtractAudio. Failed extractions carry
// only Error and ProcessingTime.
type Extraction struct {
	Success        bool    `json:"success"`
	OutputFile     string  `json:"output_file,omitempty"`
	FileSize       int64   `json:"file_size,omitempty"`
	Quality        string  `json:"quality,omitempty"`
	Bitrate        int     `json:"bitrate,omitempty"`
	SampleRate     int     `json:"sample_rate,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
	Message        string  `json:"message,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// ExtractAudio converts the audio track of a video into an MP3 file.
func (f *FFmpeg) ExtractAudio(ctx context.Context, req ExtractRequest, defaultDir string) Extraction {
	started := time.Now()
	result := f.extractAudio(ctx, req, defaultDir)
	result.ProcessingTime = time.Since(started).Seconds()
	if result.Success {
		result.Message = fmt.Sprintf("Audio extracted successfully in %.2f seconds", result.ProcessingTime)
	}
	return result
}

func (f *FFmpeg) extractAudio(ctx context.Context, req ExtractRequest, defaultDir string) Extraction {
	remote := isURL(req.InputPath)
	if !remote {
		if _, err := os.Stat(req.InputPath); err != nil {
			return Extraction{Error: "Input file does not exist: " + req.InputPath}
		}
	}

	quality := req.Quality
	if quality == "" {
		quality = "medium"
	}
	preset, ok := LookupPreset(quality)
	if !ok {
		return Extraction{Error: fmt.Sprintf("Invalid quality. Must be one of: %s", strings.Join(Qualities, ", "))}
	}

	if err := f.Available(ctx); err != nil {
		f.log().Warn("ffmpeg check failed", zap.Error(err))
		return Extraction{Error: ErrFFmpegUnavailable.Error()}
	}

	dir := req.OutputDir
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Extraction{Error: fmt.Sprintf("create output directory %s: %v", dir, err)}
	}

	name := req.OutputName
	if strings.TrimSpace(name) == "" {
		name = defaultAudioName(req.InputPath, remote)
	}
	out := filepath.Join(dir, fmt.Sprintf("%s_%s.mp3", name, uuid.NewString()[:8]))

	runCtx, cancel := context.WithTimeout(ctx, ExtractionTimeout)
	defer cancel()

	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", req.InputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", strconv.Itoa(preset.BitrateKbps) + "k",
		"-ar", strconv.Itoa(preset.SampleRate),
		"-y",
		out,
	}

	f.log().Info("extracting audio", zap.String("input", req.InputPath), zap.String("output", out), zap.String("quality", quality))
	if err := f.run(runCtx, args); err != nil {
		_ = os.Remove(out)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Extraction{Error: "Audio extraction timed out (5 minutes limit exceeded)"}
		}
		return Extraction{Error: err.Error()}
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(out)
		return Extraction{Error: "Output file was not created or is empty"}
	}

	f.log().Info("audio extracted", zap.String("output", out), zap.Int64("bytes", info.Size()))
	return Extraction{
		Success:    true,
		OutputFile: out,
		FileSize:   info.Size(),
		Quality:    quality,
		Bitrate:    preset.BitrateKbps,
		SampleRate: preset.SampleRate,
	}
}

func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

func defaultAudioName(input string, remote bool) string {
	if remote {
		return "url_audio"
	}
	base := filepath.Base(input)
	return "video_" + strings.TrimSuffix(base, filepath.Ext(base)) + "_audio"
}
