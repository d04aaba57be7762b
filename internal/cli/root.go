package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fmueller/voxtools/internal/config"
	"github.com/fmueller/voxtools/internal/datetime"
	"github.com/fmueller/voxtools/internal/logging"
	"github.com/fmueller/voxtools/internal/media"
	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/fmueller/voxtools/internal/platform"
	"github.com/fmueller/voxtools/internal/tools"
	"github.com/fmueller/voxtools/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

const defaultSilenceDBFS = -65

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	configPath string
	envFile    string

	engine       string
	model        string
	modelDir     string
	language     string
	outputDir    string
	quality      string
	timezone     string
	autoDownload bool
	silenceGate  bool
	silenceDBFS  float64
	chunk        time.Duration
	overlap      time.Duration

	cfg    config.Config
	logger *zap.Logger
	clock  datetime.Clock
	in     io.Reader

	loadConfigFn func(src config.Source) (config.Config, error)
	transcribeFn func(ctx context.Context, model string, req pipeline.Request, reporter pipeline.Reporter) pipeline.Outcome
	extractFn    tools.ExtractFunc
	serveFn      func(ctx context.Context, name string, deps tools.Deps, in io.Reader, out io.Writer) error
}

func newAppState() *appState {
	defaults := config.Default()
	return &appState{
		engine:       defaults.Engine,
		model:        defaults.Model,
		language:     defaults.Language,
		quality:      defaults.Quality,
		autoDownload: true,
		silenceDBFS:  defaultSilenceDBFS,
		chunk:        defaults.ChunkDuration,
		overlap:      defaults.Overlap,
		cfg:          defaults,
		loadConfigFn: config.Load,
	}
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "voxtools",
		Short:         "Transcription, audio extraction and date/time tools for MCP clients and the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.prepare(cmd)
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindGlobalFlags(cmd, app)
	bindTranscriptionFlags(cmd, app)
	bindToolFlags(cmd, app)

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newExtractCmd(app))
	cmd.AddCommand(newNowCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindGlobalFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	flags.BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	flags.BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
	flags.StringVar(&app.configPath, "config", app.configPath, "Config file (default $XDG_CONFIG_HOME/voxtools/config.toml)")
	flags.StringVar(&app.envFile, "env-file", app.envFile, "Environment file loaded before reading VOXTOOLS_* variables (default ./.env)")
	flags.StringVar(&app.outputDir, "output-dir", app.outputDir, "Directory for transcripts and extracted audio")
}

func bindTranscriptionFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&app.engine, "engine", app.engine, "Transcription engine: "+strings.Join(config.Engines, "|"))
	flags.StringVar(&app.model, "model", app.model, "Model name or model file path")
	flags.StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where models are stored")
	flags.StringVar(&app.language, "language", app.language, "Language hint (auto|zh|en|yue|ja|ko)")
	flags.BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Automatically download missing models")
	flags.BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Detect near-silent WAV segments and skip transcription")
	flags.Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
	flags.DurationVar(&app.chunk, "chunk-duration", app.chunk, "Audio longer than this is transcribed in windows")
	flags.DurationVar(&app.overlap, "chunk-overlap", app.overlap, "Overlap between consecutive windows")
}

func bindToolFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&app.quality, "audio-quality", app.quality, "Audio extraction quality: "+strings.Join(media.Qualities, "|"))
	flags.StringVar(&app.timezone, "timezone", app.timezone, "IANA time zone for date/time tools (default local)")
}

// prepare builds the logger and the effective configuration: defaults, the
// config file, the environment, then explicitly set flags.
func (a *appState) prepare(cmd *cobra.Command) error {
	if a.logger == nil {
		a.logger = logging.New(logging.Options{Verbose: a.verbose, JSON: a.jsonLogs})
	}

	load := a.loadConfigFn
	if load == nil {
		load = config.Load
	}
	cfg, err := load(config.Source{Path: a.configPath, EnvFile: a.envFile})
	if err != nil {
		return err
	}

	a.applyFlags(cmd.Flags().Changed, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log().Debug("configuration loaded",
		zap.String("path", cfg.Path),
		zap.String("engine", cfg.Engine),
		zap.String("model", cfg.Model),
		zap.Duration("chunk", cfg.ChunkDuration),
		zap.Duration("overlap", cfg.Overlap),
	)
	return nil
}

func (a *appState) applyFlags(changed func(string) bool, cfg *config.Config) {
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	set("engine", &cfg.Engine, a.engine)
	set("model", &cfg.Model, a.model)
	set("model-dir", &cfg.ModelDir, a.modelDir)
	set("language", &cfg.Language, sanitizeLanguage(a.language))
	set("output-dir", &cfg.OutputDir, a.outputDir)
	set("audio-quality", &cfg.Quality, a.quality)
	set("timezone", &cfg.Timezone, a.timezone)

	if changed("silence-gate") {
		cfg.SilenceGate = a.silenceGate
	}
	if changed("chunk-duration") {
		cfg.ChunkDuration = a.chunk
	}
	if changed("chunk-overlap") {
		cfg.Overlap = a.overlap
	}
}

func (a *appState) outputDirectory() (string, error) {
	dir, err := platform.ResolveOutputDir(a.cfg.OutputDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return dir, nil
}

func (a *appState) ffmpeg() *media.FFmpeg {
	return media.NewFFmpeg(a.cfg.FFmpegPath, a.cfg.FFprobePath, a.log())
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) stdin() io.Reader {
	if a.in == nil {
		return os.Stdin
	}
	return a.in
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}
