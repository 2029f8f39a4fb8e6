package cmd

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

func defaultTable(writer io.Writer, headers ...any) *tablewriter.Table {
	tbl := tablewriter.NewTable(writer)
	tbl.Header(headers...)

	return tbl
}

// cliApp loads the config and services without starting the logger or sentry, command
// output stays on stdout and diagnostics use the default stderr logger.
func cliApp() (*App, error) {
	app, errApp := NewApp(cfgFile)
	if errApp != nil {
		return nil, errApp
	}

	if errValid := app.config.Validate(); errValid != nil {
		return nil, errValid
	}

	if errInit := app.initServices(); errInit != nil {
		return nil, errInit
	}

	return app, nil
}
