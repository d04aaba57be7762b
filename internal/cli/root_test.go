package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fmueller/voxtools/internal/config"
	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersCoreFlags(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	flags := cmd.PersistentFlags()

	for _, name := range []string{
		"verbose", "json", "no-progress", "config", "env-file", "output-dir",
		"engine", "model", "model-dir", "language", "auto-download",
		"silence-gate", "silence-threshold-dbfs", "chunk-duration", "chunk-overlap",
		"audio-quality", "timezone",
	} {
		require.NotNil(t, flags.Lookup(name), name)
	}
	require.Equal(t, "whisper-cli", flags.Lookup("engine").DefValue)
	require.Equal(t, "base", flags.Lookup("model").DefValue)
	require.Equal(t, "auto", flags.Lookup("language").DefValue)
	require.Equal(t, "10m0s", flags.Lookup("chunk-duration").DefValue)
	require.Equal(t, "5s", flags.Lookup("chunk-overlap").DefValue)
	require.Equal(t, "medium", flags.Lookup("audio-quality").DefValue)
	require.Equal(t, "false", flags.Lookup("silence-gate").DefValue)
	require.Equal(t, "-65", flags.Lookup("silence-threshold-dbfs").DefValue)
}

func TestRootHelpListsSubcommands(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	for _, name := range []string{"transcribe", "extract", "now", "serve", "setup", "version"} {
		require.Contains(t, out.String(), name)
	}
}

func TestSubcommandHelpParsesSuccessfully(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "transcribe", args: []string{"transcribe", "--help"}, contains: "overlapping windows"},
		{name: "extract", args: []string{"extract", "--help"}, contains: "Extract the audio track"},
		{name: "now", args: []string{"now", "--help"}, contains: "Print the current date and time"},
		{name: "serve", args: []string{"serve", "--help"}, contains: "MCP tool server"},
		{name: "setup", args: []string{"setup", "--help"}, contains: "Download and verify speech model assets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stdout, _, err := runCommand(t, tt.args)
			require.NoError(t, err)
			require.Contains(t, stdout, tt.contains)
		})
	}
}

func TestFlagsOverrideLoadedConfig(t *testing.T) {
	t.Parallel()

	loaded := config.Default()
	loaded.Model = "small"
	loaded.Language = "zh"
	loaded.ChunkDuration = 300 * time.Second

	var gotModel string
	var gotReq pipeline.Request
	app := testApp(t, loaded)
	app.transcribeFn = func(_ context.Context, model string, req pipeline.Request, _ pipeline.Reporter) pipeline.Outcome {
		gotModel = model
		gotReq = req
		return pipeline.Outcome{Success: true, Text: "ok"}
	}

	_, _, err := runApp(t, app, []string{"transcribe", "--language", "EN", "a.wav"})
	require.NoError(t, err)
	require.Equal(t, "small", gotModel)
	require.Equal(t, "en", gotReq.Language)
	require.Equal(t, 300*time.Second, app.cfg.ChunkDuration)

	_, _, err = runApp(t, app, []string{"transcribe", "--model", "tiny", "--chunk-duration", "2m", "a.wav"})
	require.NoError(t, err)
	require.Equal(t, "tiny", gotModel)
	require.Equal(t, 2*time.Minute, app.cfg.ChunkDuration)
}

func TestConfigValidationFailsCommand(t *testing.T) {
	t.Parallel()

	_, _, err := runCommand(t, []string{"--chunk-duration", "5s", "--chunk-overlap", "5s", "now"})
	require.ErrorIs(t, err, config.ErrInvalid)
	require.Contains(t, err.Error(), "smaller than chunk duration")
}
