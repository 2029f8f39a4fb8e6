package cmd

import (
	"fmt"

	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/spf13/cobra"
)

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Print the addresses awaiting review in the upstream reference set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, errApp := cliApp()
			if errApp != nil {
				return errApp
			}
			defer log.Closer(app)

			ips, errFetch := app.source.Fetch(cmd.Context())
			if errFetch != nil {
				return errFetch
			}

			for _, ip := range ips {
				if _, errWrite := fmt.Fprintln(cmd.OutOrStdout(), ip); errWrite != nil {
					return errWrite
				}
			}

			return nil
		},
	}
}
