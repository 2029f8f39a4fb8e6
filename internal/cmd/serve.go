package cmd

import (
	"log/slog"

	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the ipreview web app",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewApp(cfgFile)
			if errApp != nil {
				return errApp
			}

			defer func() {
				if errClose := app.Close(); errClose != nil {
					slog.Error("Error closing", log.ErrAttr(errClose))
				}
			}()

			if errSetup := app.Init(ctx); errSetup != nil {
				return errSetup
			}

			return app.Serve(ctx)
		},
	}
}
