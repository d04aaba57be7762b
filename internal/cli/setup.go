package cli

import (
	"errors"
	"fmt"

	"github.com/fmueller/voxtools/internal/config"
	"github.com/fmueller/voxtools/internal/download"
	"github.com/fmueller/voxtools/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Download and verify speech model assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.cfg.Engine == config.EngineOpenAI {
				fmt.Fprintln(cmd.OutOrStdout(), "Engine openai uses a remote model; nothing to download")
				return nil
			}

			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			resolved, err := whisper.ResolveModel(app.cfg.Model, modelDir)
			if err != nil {
				return err
			}
			if resolved.IsCustomPath {
				return fmt.Errorf("setup expects a named model; got custom path %s", resolved.Path)
			}

			if !resolved.NeedsDownload {
				err := download.VerifyFile(resolved.Path, resolved.SHA256)
				if err == nil {
					app.log().Info("model already present", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
					fmt.Fprintf(cmd.OutOrStdout(), "Model %s already present at %s\n", resolved.Name, resolved.Path)
					return nil
				}
				if !errors.Is(err, download.ErrChecksumMismatch) {
					return err
				}
				app.log().Warn("model checksum verification failed; downloading fresh copy", zap.String("model", resolved.Name), zap.Error(err))
			}

			app.log().Info("downloading model", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
			if err := app.fetcher().Fetch(cmd.Context(), download.Asset{
				URL:         resolved.URL(),
				Destination: resolved.Path,
				SHA256:      resolved.SHA256,
			}); err != nil {
				return fmt.Errorf("download model %s: %w", resolved.Name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model %s installed at %s\n", resolved.Name, resolved.Path)
			return nil
		},
	}
}
