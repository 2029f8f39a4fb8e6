package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/network"
	"github.com/spf13/cobra"
)

func blocklistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocklist",
		Short: "Blocklist file management",
	}
}

func blocklistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the blocklist entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, errApp := cliApp()
			if errApp != nil {
				return errApp
			}
			defer log.Closer(app)

			entries, errEntries := app.store.Entries(cmd.Context())
			if errEntries != nil {
				return errEntries
			}

			size, errSize := app.store.Size()
			if errSize != nil {
				return errSize
			}

			tbl := defaultTable(cmd.OutOrStdout(), "#", "Subnet")
			for idx, entry := range entries {
				if errAppend := tbl.Append([]string{strconv.Itoa(idx + 1), entry}); errAppend != nil {
					return errAppend
				}
			}

			tbl.Footer(fmt.Sprintf("%d entries", len(entries)), humanize.Bytes(uint64(size))) //nolint:gosec

			return tbl.Render()
		},
	}
}

func blocklistAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <subnet>",
		Short: "Append a subnet to the blocklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, errPrefix := network.ParsePrefix(args[0]); errPrefix != nil {
				return errPrefix
			}

			app, errApp := cliApp()
			if errApp != nil {
				return errApp
			}
			defer log.Closer(app)

			result, errAdd := app.store.Add(cmd.Context(), args[0])
			if errAdd != nil {
				return errAdd
			}

			_, errWrite := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], result)

			return errWrite
		},
	}
}
