package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxtools/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewEngineReportsModelInUse(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	whisperCLI := filepath.Join(dir, "whisper-cli")
	require.NoError(t, os.WriteFile(whisperCLI, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	weights := filepath.Join(dir, "finetuned.bin")
	require.NoError(t, os.WriteFile(weights, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ggml-tiny.bin"), []byte("x"), 0o644))

	cases := []struct {
		name  string
		cfg   func(*config.Config)
		model string
		want  string
	}{
		{
			name:  "catalog model",
			cfg:   func(c *config.Config) { c.ModelDir = dir },
			model: "tiny",
			want:  "tiny",
		},
		{
			name:  "custom model path",
			model: weights,
			want:  weights,
		},
		{
			name: "openai ignores the model argument",
			cfg: func(c *config.Config) {
				c.Engine = config.EngineOpenAI
				c.OpenAIAPIKey = "sk-test"
				c.OpenAIModel = "gpt-4o-transcribe"
			},
			model: "large",
			want:  "gpt-4o-transcribe",
		},
		{
			name: "openai default model",
			cfg: func(c *config.Config) {
				c.Engine = config.EngineOpenAI
				c.OpenAIAPIKey = "sk-test"
				c.OpenAIModel = ""
			},
			model: "base",
			want:  "whisper-1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			cfg.WhisperPath = whisperCLI
			cfg.ModelDir = t.TempDir()
			cfg.OutputDir = t.TempDir()
			if tc.cfg != nil {
				tc.cfg(&cfg)
			}
			app := testApp(t, cfg)
			app.cfg = cfg
			app.autoDownload = false

			engine, used, err := app.newEngine(context.Background(), tc.model)
			require.NoError(t, err)
			require.NotNil(t, engine)
			require.Equal(t, tc.want, used)
		})
	}
}
