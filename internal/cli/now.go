package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newNowCmd(app *appState) *cobra.Command {
	var (
		format string
		date   string
		info   bool
	)

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print the current date and time",
		Example: "  voxtools now --timezone Asia/Shanghai\n" +
			"  voxtools now --format '%Y年%m月%d日' --date 2024-07-04\n" +
			"  voxtools now --info",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tz := app.cfg.Timezone

			if info {
				details, err := app.clock.Info(tz)
				if err != nil {
					return err
				}
				raw, err := json.MarshalIndent(details, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}

			var (
				out string
				err error
			)
			if format == "" && date == "" {
				out, err = app.clock.CurrentDateTime(tz)
			} else {
				if date == "" {
					date = "now"
				}
				out, err = app.clock.Format(date, format, tz)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "strftime pattern, e.g. %Y-%m-%d")
	cmd.Flags().StringVar(&date, "date", "", "Date to format as YYYY-MM-DD (default now)")
	cmd.Flags().BoolVar(&info, "info", false, "Print a detailed JSON breakdown of the current date")
	return cmd
}
