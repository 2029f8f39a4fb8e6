package cmd

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/network"
	"github.com/spf13/cobra"
)

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <ip>...",
		Short: "Resolve addresses to their announcing subnet and owner",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, errParse := network.ParseAddrs(args)
			if errParse != nil {
				return errParse
			}

			app, errApp := cliApp()
			if errApp != nil {
				return errApp
			}
			defer log.Closer(app)

			var (
				failed error
				tbl    = defaultTable(cmd.OutOrStdout(), "IP", "Subnet", "Owner", "ASN", "CC", "Registry")
			)

			for _, addr := range addrs {
				if !network.IsGlobal(addr) {
					slog.Warn("Skipping private/reserved address", slog.String("ip", addr.String()))

					continue
				}

				record, errLookup := app.lookup.Lookup(cmd.Context(), addr)
				if errLookup != nil {
					slog.Error("Lookup failed", slog.String("ip", addr.String()), log.ErrAttr(errLookup))
					failed = errors.Join(failed, errLookup)

					continue
				}

				if errAppend := tbl.Append([]string{
					addr.String(),
					record.Subnet.String(),
					record.Owner,
					strconv.FormatUint(uint64(record.ASNum), 10),
					record.Country,
					record.Registry,
				}); errAppend != nil {
					return errAppend
				}
			}

			if errRender := tbl.Render(); errRender != nil {
				return errRender
			}

			return failed
		},
	}
}
