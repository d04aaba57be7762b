package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fmueller/voxtools/internal/audio"
	"github.com/fmueller/voxtools/internal/platform"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const enginePathEnv = "VOXTOOLS_WHISPER_PATH"

// BundledEngine runs a whisper-cli binary shipped next to voxtools (or named
// by VOXTOOLS_WHISPER_PATH) against a local ggml model.
type BundledEngine struct {
	Executable string
	ModelPath  string
	Logger     *zap.Logger

	// SilenceGate skips whisper for near-silent WAV input and returns an
	// empty transcript instead. The gate triggers at SilenceDBFS RMS.
	SilenceGate bool
	SilenceDBFS float64
}

// NewBundledEngine locates the engine binary. An explicit executable (from
// configuration) wins over the environment, which wins over the bundled copy.
func NewBundledEngine(executable, modelPath string, logger *zap.Logger) (*BundledEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if strings.TrimSpace(executable) == "" {
		executable = strings.TrimSpace(os.Getenv(enginePathEnv))
	}
	if executable != "" {
		if err := ensureExecutable(executable); err != nil {
			return nil, fmt.Errorf("whisper engine %s is not executable: %w", executable, err)
		}
		return &BundledEngine{Executable: executable, ModelPath: modelPath, Logger: logger}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve voxtools executable path: %w", err)
	}

	resolved, err := ResolveBundledEnginePath(self)
	if err != nil {
		return nil, err
	}

	return &BundledEngine{Executable: resolved, ModelPath: modelPath, Logger: logger}, nil
}

func ResolveBundledEnginePath(self string) (string, error) {
	for _, candidate := range EnginePathCandidates(self) {
		if err := ensureExecutable(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("bundled whisper engine not found near %s; install whisper-cli at ../libexec/whisper/%s or set %s", self, engineBinaryName(), enginePathEnv)
}

func EnginePathCandidates(self string) []string {
	binDir := filepath.Dir(self)
	name := engineBinaryName()
	rt := platform.CurrentRuntime()
	target := rt.OS + "_" + rt.Arch

	return []string{
		filepath.Join(binDir, "..", "libexec", "whisper", name),
		filepath.Join(binDir, "libexec", "whisper", name),
		filepath.Join(binDir, "packaging", "whisper", target, name),
		filepath.Join(binDir, name),
	}
}

// cliOutput is the subset of whisper-cli's -oj document we read.
type cliOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

func (b *BundledEngine) Transcribe(ctx context.Context, req TranscriptionRequest) (Result, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, errors.New("audio path is required")
	}
	if strings.TrimSpace(b.ModelPath) == "" {
		return Result{}, errors.New("model path is required")
	}

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = "auto"
	}

	// Nothing was recognized, so there is no language to report.
	if b.silent(req.AudioPath) {
		return Result{}, nil
	}

	if err := ensureExecutable(b.Executable); err != nil {
		return Result{}, fmt.Errorf("whisper engine missing or not executable: %w", err)
	}

	outBase := filepath.Join(os.TempDir(), "voxtools-whisper-"+uuid.NewString())
	txtOut := outBase + ".txt"
	jsonOut := outBase + ".json"
	defer os.Remove(txtOut)
	defer os.Remove(jsonOut)

	args := []string{"-m", b.ModelPath, "-f", req.AudioPath, "-nt", "-otxt", "-oj", "-of", outBase, "-l", lang}

	cmd := exec.CommandContext(ctx, b.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	b.log().Debug("running whisper engine", zap.String("engine", b.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return Result{}, b.classify(err, strings.TrimSpace(stderr.String()))
	}

	content, err := os.ReadFile(txtOut)
	if err != nil {
		return Result{}, fmt.Errorf("read whisper output: %w", err)
	}
	result := Result{Text: strings.TrimSpace(string(content)), Language: lang}

	if detected, err := readDetectedLanguage(jsonOut); err != nil {
		b.log().Debug("whisper language report unavailable", zap.Error(err))
	} else if detected != "" {
		result.Language = detected
	}

	if result.Language == "auto" {
		result.Language = ""
	}
	return result, nil
}

func readDetectedLanguage(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var out cliOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode whisper json: %w", err)
	}
	return strings.TrimSpace(out.Result.Language), nil
}

func (b *BundledEngine) silent(path string) bool {
	if !b.SilenceGate || !strings.EqualFold(filepath.Ext(path), ".wav") {
		return false
	}

	silent, metrics, err := audio.IsSilentWAV(path, b.SilenceDBFS)
	if err != nil {
		b.log().Debug("silence gate analysis failed; running whisper", zap.String("audio", path), zap.Error(err))
		return false
	}
	if silent {
		b.log().Info("audio considered silent; skipping whisper",
			zap.String("audio", path),
			zap.Float64("rms_dbfs", metrics.RMSdBFS),
			zap.Float64("peak_dbfs", metrics.PeakdBFS),
		)
	}
	return silent
}

func (b *BundledEngine) classify(runErr error, errText string) error {
	switch {
	case isMissingSharedLibraryError(errText):
		return fmt.Errorf("whisper engine at %s is missing required shared libraries (%s); rebuild whisper-cli with BUILD_SHARED_LIBS=OFF", b.Executable, errText)
	case isIllegalInstructionError(errText) || isIllegalInstructionError(runErr.Error()):
		return fmt.Errorf("whisper engine crashed with an illegal CPU instruction; set %s to a whisper-cli built for this CPU", enginePathEnv)
	case errText == "":
		return fmt.Errorf("whisper transcribe failed: %w", runErr)
	default:
		return fmt.Errorf("whisper transcribe failed: %w (%s)", runErr, errText)
	}
}

func (b *BundledEngine) log() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func engineBinaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibraryError(stderr string) bool {
	value := strings.ToLower(strings.TrimSpace(stderr))
	if value == "" {
		return false
	}

	for _, pattern := range []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	} {
		if strings.Contains(value, pattern) {
			return true
		}
	}
	return false
}

func isIllegalInstructionError(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "illegal instruction")
}
