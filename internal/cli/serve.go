package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/fmueller/voxtools/internal/tools"
	"github.com/fmueller/voxtools/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:       "serve <" + strings.Join(tools.ServerNames, "|") + ">",
		Short:     "Run an MCP tool server on stdin/stdout",
		Long:      "Run an MCP tool server speaking JSON-RPC on stdin/stdout. Logs go to stderr.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: tools.ServerNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFn := app.serveFn
			if serveFn == nil {
				serveFn = app.serve
			}
			return serveFn(cmd.Context(), args[0], app.toolDeps(), app.stdin(), cmd.OutOrStdout())
		},
	}
}

func (a *appState) toolDeps() tools.Deps {
	transcribeFn := a.transcribeFn
	if transcribeFn == nil {
		transcribeFn = a.runTranscription
	}
	extractFn := a.extractFn
	if extractFn == nil {
		extractFn = a.runExtraction
	}

	return tools.Deps{
		Transcribe: func(ctx context.Context, model string, req pipeline.Request) pipeline.Outcome {
			return transcribeFn(ctx, model, req, pipeline.LogReporter{Logger: a.log()})
		},
		Extract:         extractFn,
		Clock:           a.clock,
		DefaultLanguage: a.cfg.Language,
		DefaultModel:    a.cfg.Model,
		DefaultQuality:  a.cfg.Quality,
		DefaultTimezone: a.cfg.Timezone,
		Logger:          a.log(),
	}
}

func (a *appState) serve(ctx context.Context, name string, deps tools.Deps, in io.Reader, out io.Writer) error {
	s, err := tools.NewServer(name, version.Resolve(), deps)
	if err != nil {
		return err
	}

	a.log().Info("serving MCP tools on stdio", zap.String("server", name))
	if err := tools.Serve(ctx, s, in, out, a.log()); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve %s: %w", name, err)
	}
	return nil
}
