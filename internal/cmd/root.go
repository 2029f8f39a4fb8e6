// Package cmd implements the CLI (Command Line Interface) of the application.
//
// serve - The main application service entry point
// lookup - Resolve addresses to their announcing subnet and owner
// pending - Print the pending address list
// blocklist list - Print the blocklist entries
// blocklist add - Append a subnet to the blocklist
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string //nolint:gochecknoglobals

// rootCmd represents the base command when called without any subcommands.
//
//nolint:gochecknoglobals
var rootCmd = &cobra.Command{
	Use:   "ipreview",
	Short: "Triage suspicious addresses into subnet blocklist entries",
	Long:  ``,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupCLI()
	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	if BuildVersion == "" {
		BuildVersion = "master"
	}
	rootCmd.Version = BuildVersion

	blocklist := blocklistCmd()
	blocklist.AddCommand(blocklistListCmd())
	blocklist.AddCommand(blocklistAddCmd())

	rootCmd.AddCommand(blocklist)
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/ipreview.yml or ./ipreview.yml)")
}
