package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fmueller/voxtools/internal/media"
	"github.com/spf13/cobra"
)

func newExtractCmd(app *appState) *cobra.Command {
	var outputName string

	cmd := &cobra.Command{
		Use:   "extract <video-file-or-url>",
		Short: "Extract the audio track of a video into an MP3 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractFn := app.extractFn
			if extractFn == nil {
				extractFn = app.runExtraction
			}

			stop := func() {}
			if app.progressEnabled() {
				stop = startSpinner(cmd.ErrOrStderr(), "Extracting audio")
			}
			result := extractFn(cmd.Context(), media.ExtractRequest{
				InputPath:  args[0],
				OutputName: outputName,
				Quality:    app.cfg.Quality,
			})
			stop()

			raw, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))

			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputName, "output-name", "", "Output file name without extension (default video_<name>_audio)")
	return cmd
}

func (a *appState) runExtraction(ctx context.Context, req media.ExtractRequest) media.Extraction {
	defaultDir := ""
	if req.OutputDir == "" {
		dir, err := a.outputDirectory()
		if err != nil {
			return media.Extraction{Error: err.Error()}
		}
		defaultDir = dir
	}
	return a.ffmpeg().ExtractAudio(ctx, req, defaultDir)
}
