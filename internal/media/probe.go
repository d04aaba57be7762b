package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fmueller/voxtools/internal/audio"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration reports the playback length of path. It asks ffprobe first and
// falls back to the WAV header when ffprobe cannot be run at all.
func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	d, err := f.probe(ctx, path)
	if err == nil {
		return d, nil
	}

	if !isMissingBinary(err) {
		return 0, err
	}

	f.log().Debug("ffprobe unavailable; reading wav header", zap.String("audio", path), zap.Error(err))
	d, wavErr := audio.WAVDuration(path)
	if wavErr != nil {
		return 0, errors.Join(err, wavErr)
	}
	return d, nil
}

func (f *FFmpeg) probe(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, f.ProbeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if isMissingBinary(err) {
			return 0, err
		}
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, strings.TrimSpace(stderr.String()))
	}

	return parseProbeDuration(stdout.Bytes())
}

func parseProbeDuration(raw []byte) (time.Duration, error) {
	var out probeFormat
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}

	value := strings.TrimSpace(out.Format.Duration)
	if value == "" || value == "N/A" {
		return 0, errors.New("ffprobe reported no duration")
	}

	seconds, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", value, err)
	}
	if seconds.Sign() <= 0 {
		return 0, fmt.Errorf("non-positive duration %s", value)
	}

	return time.Duration(seconds.Shift(9).IntPart()), nil
}
