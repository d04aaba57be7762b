package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fmueller/voxtools/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	var (
		outputName string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file of any length",
		Long: "Transcribe an audio file. Audio longer than the chunk duration is split into\n" +
			"overlapping windows that are transcribed in order and merged into one transcript.\n" +
			"The transcript is also written to <output-dir>/<name>_<id>.txt.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcribeFn := app.transcribeFn
			if transcribeFn == nil {
				transcribeFn = app.runTranscription
			}

			var reporter pipeline.Reporter = pipeline.LogReporter{Logger: app.log()}
			if app.progressEnabled() {
				reporter = newBarReporter(cmd.ErrOrStderr())
			}

			outcome := transcribeFn(cmd.Context(), app.cfg.Model, pipeline.Request{
				AudioPath:  filepath.Clean(args[0]),
				Language:   app.cfg.Language,
				OutputName: outputName,
			}, reporter)

			if asJSON {
				raw, err := json.MarshalIndent(outcome, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			}
			if !outcome.Success {
				return errors.New(outcome.Error)
			}
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), outcome.Text)
			}

			app.log().Info("transcript saved", zap.String("path", outcome.OutputFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&outputName, "output-name", "", "Transcript file name without extension (default transcript_<audio name>)")
	cmd.Flags().BoolVar(&asJSON, "result-json", false, "Print the full result record as JSON instead of the transcript text")
	return cmd
}

// runTranscription wires the ffmpeg-backed pipeline to the configured engine.
func (a *appState) runTranscription(ctx context.Context, model string, req pipeline.Request, reporter pipeline.Reporter) pipeline.Outcome {
	if outcome, ok := pipeline.CheckInput(req.AudioPath); !ok {
		return outcome
	}

	outputDir, err := a.outputDirectory()
	if err != nil {
		return pipeline.Failed(fmt.Errorf("%w: %w", pipeline.ErrPersist, err), err.Error())
	}

	engine, modelUsed, err := a.newEngine(ctx, model)
	if err != nil {
		return pipeline.Failed(fmt.Errorf("%w: %w", pipeline.ErrEngine, err), err.Error())
	}

	ff := a.ffmpeg()
	p := pipeline.New(ff, ff, engine, outputDir)
	p.ChunkDuration = a.cfg.ChunkDuration
	p.Overlap = a.cfg.Overlap
	p.Reporter = reporter
	p.Logger = a.log()
	p.Model = modelUsed

	return p.Run(ctx, req)
}
