package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fmueller/voxtools/internal/config"
	"github.com/fmueller/voxtools/internal/download"
	"github.com/fmueller/voxtools/internal/platform"
	"github.com/fmueller/voxtools/internal/whisper"
	"go.uber.org/zap"
)

// newEngine builds the configured engine and reports the model it runs.
// The openai engine ignores model and uses the configured remote model.
func (a *appState) newEngine(ctx context.Context, model string) (whisper.Engine, string, error) {
	if a.cfg.Engine == config.EngineOpenAI {
		engine, err := whisper.NewOpenAIEngine(whisper.OpenAIOptions{
			APIKey:  a.cfg.OpenAIAPIKey,
			Model:   a.cfg.OpenAIModel,
			BaseURL: a.cfg.OpenAIBaseURL,
			Logger:  a.log(),
		})
		if err != nil {
			return nil, "", err
		}
		return engine, engine.Model(), nil
	}

	resolved, err := a.ensureModelAvailable(ctx, model)
	if err != nil {
		return nil, "", err
	}

	engine, err := whisper.NewBundledEngine(a.cfg.WhisperPath, resolved.Path, a.log())
	if err != nil {
		return nil, "", err
	}
	engine.SilenceGate = a.cfg.SilenceGate
	engine.SilenceDBFS = a.silenceDBFS

	used := resolved.Name
	if resolved.IsCustomPath {
		used = resolved.Path
	}
	return engine, used, nil
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.cfg.ModelDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return dir, nil
}

func (a *appState) ensureModelAvailable(ctx context.Context, model string) (whisper.ResolvedModel, error) {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	resolved, err := whisper.ResolveModel(model, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, err
	}
	if !resolved.NeedsDownload {
		return resolved, nil
	}

	if !a.autoDownload {
		return whisper.ResolvedModel{}, fmt.Errorf("model %q is missing at %s; run `voxtools setup --model %s` or use --auto-download=true", resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := a.fetcher().Fetch(ctx, download.Asset{
		URL:         resolved.URL(),
		Destination: resolved.Path,
		SHA256:      resolved.SHA256,
	}); err != nil {
		return whisper.ResolvedModel{}, fmt.Errorf("download model %q: %w", resolved.Name, err)
	}

	resolved.NeedsDownload = false
	return resolved, nil
}

func (a *appState) fetcher() *download.Fetcher {
	return download.NewFetcher(!a.noProgress, a.log())
}
