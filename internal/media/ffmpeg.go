package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrFFmpegUnavailable = errors.New("ffmpeg is not available or not in PATH")

// FFmpeg wraps the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	Binary      string
	ProbeBinary string
	// TempDir receives extracted segments; empty means os.TempDir().
	TempDir string
	Logger  *zap.Logger
}

func NewFFmpeg(binary, probeBinary string, logger *zap.Logger) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(probeBinary) == "" {
		probeBinary = "ffprobe"
	}
	return &FFmpeg{Binary: binary, ProbeBinary: probeBinary, Logger: logger}
}

// Available runs `ffmpeg -version`.
func (f *FFmpeg) Available(ctx context.Context) error {
	if err := exec.CommandContext(ctx, f.Binary, "-version").Run(); err != nil {
		return fmt.Errorf("%w: %w", ErrFFmpegUnavailable, err)
	}
	return nil
}

// ExtractSegment cuts [start, end) out of src into a new WAV file keeping the
// source sample rate and channel layout. The caller removes the file.
func (f *FFmpeg) ExtractSegment(ctx context.Context, src string, index int, start, end time.Duration) (string, error) {
	if end <= start {
		return "", fmt.Errorf("empty segment %v-%v", start, end)
	}

	dir := f.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	out := filepath.Join(dir, fmt.Sprintf("voxtools_segment_%s_%03d.wav", uuid.NewString()[:8], index))

	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end - start),
		"-i", src,
		"-vn",
		"-c:a", "pcm_s16le",
		out,
	}

	f.log().Debug("extracting segment", zap.Int("index", index), zap.Duration("start", start), zap.Duration("end", end), zap.String("output", out))
	if err := f.run(ctx, args); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("extract segment %d: %w", index, err)
	}
	return out, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if isMissingBinary(err) {
			return fmt.Errorf("%w: %w", ErrFFmpegUnavailable, err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg failed: %s", msg)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// isMissingBinary reports whether err came from failing to start the
// process rather than from the process itself.
func isMissingBinary(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist)
}

func (f *FFmpeg) log() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
