package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// ExportOptions carries the spreadsheet export parameters from the
// command line.
type ExportOptions struct {
	Search      string
	BlockID     int64
	YearFrom    int64
	YearTo      int64
	Destination string
}

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app
// implementation.
type Applicator interface {
	Path(ctx context.Context, cfgPath string) error
	Verify(ctx context.Context, cfgPath string) error
	Stats(ctx context.Context, cfgPath string) error
	Backup(ctx context.Context, cfgPath, destination string) error
	Export(ctx context.Context, cfgPath string, opts ExportOptions) error
	Dispatch(ctx context.Context, cfgPath, command, request string) error
	Serve(ctx context.Context, cfgPath string) error
}

// BuildCLI creates the full CLI command structure for the application,
// injecting the core application logic (the Applicator) into the
// command actions.
func BuildCLI(app Applicator) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the configuration file (defaults apply if absent)",
	}

	pathCmd := &cli.Command{
		Name:  "path",
		Usage: "Print the resolved database file location",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Path(ctx, c.String("config"))
		},
	}

	verifyCmd := &cli.Command{
		Name:  "verify",
		Usage: "Check that the database holds the expected tables",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Verify(ctx, c.String("config"))
		},
	}

	statsCmd := &cli.Command{
		Name:  "stats",
		Usage: "Print record counts and the on-disk database size",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Stats(ctx, c.String("config"))
		},
	}

	backupCmd := &cli.Command{
		Name:  "backup",
		Usage: "Write a consistent snapshot of the database to a file",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{Name: "to", Usage: "destination file for the backup", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Backup(ctx, c.String("config"), c.String("to"))
		},
	}

	exportCmd := &cli.Command{
		Name:  "export",
		Usage: "Export graves, heirs and payment history to a spreadsheet",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{Name: "to", Usage: "destination .xlsx file", Required: true},
			&cli.StringFlag{Name: "search", Usage: "restrict to graves matching this name or plot number"},
			&cli.Int64Flag{Name: "block", Usage: "restrict to a single block id"},
			&cli.Int64Flag{Name: "from", Usage: "first fee year column (derived from the data if omitted)"},
			&cli.Int64Flag{Name: "until", Usage: "last fee year column (derived from the data if omitted)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Export(ctx, c.String("config"), ExportOptions{
				Search:      c.String("search"),
				BlockID:     c.Int64("block"),
				YearFrom:    c.Int64("from"),
				YearTo:      c.Int64("until"),
				Destination: c.String("to"),
			})
		},
	}

	dispatchCmd := &cli.Command{
		Name:  "dispatch",
		Usage: "Run a single command envelope and print its response",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{Name: "command", Usage: "the command name to run", Required: true},
			&cli.StringFlag{Name: "request", Usage: "the JSON request body", Value: "{}"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Dispatch(ctx, c.String("config"), c.String("command"), c.String("request"))
		},
	}

	serveCmd := &cli.Command{
		Name:  "serve",
		Usage: "Read command envelopes from stdin, one per line, and answer on stdout",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Serve(ctx, c.String("config"))
		},
	}

	rootCmd := &cli.Command{
		Name:     "astana",
		Usage:    "Cemetery plot record keeping for the foundation office",
		Commands: []*cli.Command{pathCmd, verifyCmd, statsCmd, backupCmd, exportCmd, dispatchCmd, serveCmd},
	}

	return rootCmd
}
