package cli

import (
	"bytes"
	"testing"

	"github.com/fmueller/voxtools/internal/config"
	"go.uber.org/zap"
)

// testApp returns an appState that ignores the user's config file and
// environment and keeps every directory inside the test's temp dir.
func testApp(t *testing.T, cfg config.Config) *appState {
	t.Helper()

	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = t.TempDir()
	}
	app := newAppState()
	app.logger = zap.NewNop()
	app.noProgress = true
	app.loadConfigFn = func(config.Source) (config.Config, error) {
		return cfg, nil
	}
	return app
}

func runApp(t *testing.T, app *appState, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runApp(t, testApp(t, config.Default()), args)
}
