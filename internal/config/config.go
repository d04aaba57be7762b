// Package config merges defaults, the TOML config file and the environment
// into one validated Config. CLI flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fmueller/voxtools/internal/media"
	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/fmueller/voxtools/internal/platform"
	"github.com/fmueller/voxtools/internal/whisper"
	"github.com/joho/godotenv"
)

const (
	EngineWhisperCLI = "whisper-cli"
	EngineOpenAI     = "openai"

	envPrefix = "VOXTOOLS_"
)

var ErrInvalid = errors.New("invalid configuration")

var Engines = []string{EngineWhisperCLI, EngineOpenAI}

type Config struct {
	Engine   string
	Model    string
	Language string

	ModelDir    string
	OutputDir   string
	WhisperPath string
	SilenceGate bool

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	FFmpegPath  string
	FFprobePath string
	Quality     string

	ChunkDuration time.Duration
	Overlap       time.Duration

	Timezone string

	// Path is the config file that was read, empty when none was.
	Path string
}

type fileConfig struct {
	Engine   string `toml:"engine"`
	Model    string `toml:"model"`
	Language string `toml:"language"`

	ModelDir    string `toml:"model_dir"`
	OutputDir   string `toml:"output_dir"`
	WhisperPath string `toml:"whisper_path"`
	SilenceGate *bool  `toml:"silence_gate"`

	OpenAI struct {
		APIKey  string `toml:"api_key"`
		BaseURL string `toml:"base_url"`
		Model   string `toml:"model"`
	} `toml:"openai"`

	FFmpeg struct {
		Path      string `toml:"path"`
		ProbePath string `toml:"probe_path"`
		Quality   string `toml:"quality"`
	} `toml:"ffmpeg"`

	Chunking struct {
		ChunkSeconds   *float64 `toml:"chunk_seconds"`
		OverlapSeconds *float64 `toml:"overlap_seconds"`
	} `toml:"chunking"`

	Timezone string `toml:"timezone"`
}

func Default() Config {
	return Config{
		Engine:        EngineWhisperCLI,
		Model:         whisper.DefaultModel,
		Language:      "auto",
		Quality:       "medium",
		ChunkDuration: pipeline.DefaultChunkDuration,
		Overlap:       pipeline.DefaultOverlap,
	}
}

// Source names the inputs of Load. Zero values mean: default config file
// location if it exists, ./.env if it exists, and the process environment.
type Source struct {
	Path      string
	EnvFile   string
	LookupEnv func(string) (string, bool)
}

func Load(src Source) (Config, error) {
	cfg := Default()

	path, explicit := src.Path, src.Path != ""
	if !explicit {
		env, err := platform.CurrentEnv()
		if err == nil {
			path, _ = env.ConfigFile()
		}
	}
	if path != "" {
		if err := applyFile(&cfg, path, explicit); err != nil {
			return Config{}, err
		}
	}

	lookup, err := envLookup(src)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path

	setString(&cfg.Engine, fc.Engine)
	setString(&cfg.Model, fc.Model)
	setString(&cfg.Language, fc.Language)
	setString(&cfg.ModelDir, expandTilde(fc.ModelDir))
	setString(&cfg.OutputDir, expandTilde(fc.OutputDir))
	setString(&cfg.WhisperPath, expandTilde(fc.WhisperPath))
	if fc.SilenceGate != nil {
		cfg.SilenceGate = *fc.SilenceGate
	}
	setString(&cfg.OpenAIAPIKey, fc.OpenAI.APIKey)
	setString(&cfg.OpenAIBaseURL, fc.OpenAI.BaseURL)
	setString(&cfg.OpenAIModel, fc.OpenAI.Model)
	setString(&cfg.FFmpegPath, expandTilde(fc.FFmpeg.Path))
	setString(&cfg.FFprobePath, expandTilde(fc.FFmpeg.ProbePath))
	setString(&cfg.Quality, fc.FFmpeg.Quality)
	if fc.Chunking.ChunkSeconds != nil {
		cfg.ChunkDuration = seconds(*fc.Chunking.ChunkSeconds)
	}
	if fc.Chunking.OverlapSeconds != nil {
		cfg.Overlap = seconds(*fc.Chunking.OverlapSeconds)
	}
	setString(&cfg.Timezone, fc.Timezone)
	return nil
}

// envLookup layers the process environment over the .env file: variables
// already set win, as with godotenv.Load.
func envLookup(src Source) (func(string) (string, bool), error) {
	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	envFile, explicit := src.EnvFile, src.EnvFile != ""
	if !explicit {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", envFile, err)
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(envPrefix + key)
		return strings.TrimSpace(v)
	}

	setString(&cfg.Engine, get("ENGINE"))
	setString(&cfg.Model, get("MODEL"))
	setString(&cfg.Language, get("LANGUAGE"))
	setString(&cfg.ModelDir, expandTilde(get("MODEL_DIR")))
	setString(&cfg.OutputDir, expandTilde(get("OUTPUT_DIR")))
	setString(&cfg.WhisperPath, get("WHISPER_PATH"))
	setString(&cfg.FFmpegPath, get("FFMPEG_PATH"))
	setString(&cfg.FFprobePath, get("FFPROBE_PATH"))
	setString(&cfg.Quality, get("AUDIO_QUALITY"))
	setString(&cfg.Timezone, get("TIMEZONE"))
	setString(&cfg.OpenAIBaseURL, get("OPENAI_BASE_URL"))
	setString(&cfg.OpenAIModel, get("OPENAI_MODEL"))

	if v, ok := lookup("OPENAI_API_KEY"); ok && strings.TrimSpace(v) != "" {
		cfg.OpenAIAPIKey = strings.TrimSpace(v)
	}
	setString(&cfg.OpenAIAPIKey, get("OPENAI_API_KEY"))

	if v := get("SILENCE_GATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sSILENCE_GATE=%q: %w", ErrInvalid, envPrefix, v, err)
		}
		cfg.SilenceGate = b
	}
	for key, dst := range map[string]*time.Duration{
		"CHUNK_SECONDS":   &cfg.ChunkDuration,
		"OVERLAP_SECONDS": &cfg.Overlap,
	} {
		v := get(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %w", ErrInvalid, envPrefix, key, v, err)
		}
		*dst = seconds(f)
	}
	return nil
}

// Validate checks the merged configuration, including flag overrides.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(Engines, c.Engine) {
		errs = append(errs, fmt.Errorf("engine must be one of: %s (got %q)", strings.Join(Engines, ", "), c.Engine))
	}
	if !whisper.IsSupportedLanguage(c.Language) {
		errs = append(errs, fmt.Errorf("language must be one of: %s (got %q)", strings.Join(whisper.SupportedLanguages, ", "), c.Language))
	}
	if _, ok := media.LookupPreset(c.Quality); !ok {
		errs = append(errs, fmt.Errorf("audio quality must be one of: %s (got %q)", strings.Join(media.Qualities, ", "), c.Quality))
	}
	if c.ChunkDuration <= 0 {
		errs = append(errs, fmt.Errorf("chunk duration must be positive (got %v)", c.ChunkDuration))
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkDuration {
		errs = append(errs, fmt.Errorf("overlap %v must be at least 0 and smaller than chunk duration %v", c.Overlap, c.ChunkDuration))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
