package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"astana/commands"
	"astana/config"
)

// App wires configuration, logging and the command dispatcher behind
// the Applicator interface consumed by the CLI.
type App struct {
	out *os.File
}

// NewApp returns an App writing command responses to stdout.
func NewApp() *App {
	return &App{out: os.Stdout}
}

// newDispatcher loads configuration (falling back to defaults when no
// file is present) and builds a dispatcher logging to stderr.
func (a *App) newDispatcher(cfgPath string) (*commands.Dispatcher, error) {
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           cfg.ParsedLogLevel(),
		Prefix:          "astana",
	})
	return commands.New(cfg, logger), nil
}

// runCommand dispatches one envelope, prints the JSON response and
// fails if the command reported an error.
func (a *App) runCommand(ctx context.Context, cfgPath, command string, request any) error {
	d, err := a.newDispatcher(cfgPath)
	if err != nil {
		return err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}
	raw, err := json.Marshal(commands.Envelope{Command: command, Request: body})
	if err != nil {
		return fmt.Errorf("could not marshal envelope: %w", err)
	}

	out := d.Dispatch(ctx, raw)
	fmt.Fprintf(a.out, "%s\n", out)

	var resp commands.Response
	if err := json.Unmarshal(out, &resp); err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}
	return nil
}

// Path prints the resolved database file location.
func (a *App) Path(ctx context.Context, cfgPath string) error {
	return a.runCommand(ctx, cfgPath, "get_database_path", struct{}{})
}

// Verify checks the database for the expected tables.
func (a *App) Verify(ctx context.Context, cfgPath string) error {
	return a.runCommand(ctx, cfgPath, "verify_database", struct{}{})
}

// Stats prints record counts and the on-disk database size.
func (a *App) Stats(ctx context.Context, cfgPath string) error {
	return a.runCommand(ctx, cfgPath, "get_database_stats", struct{}{})
}

// Backup writes a consistent snapshot of the database to destination.
func (a *App) Backup(ctx context.Context, cfgPath, destination string) error {
	return a.runCommand(ctx, cfgPath, "backup_database", struct {
		Destination string `json:"destination"`
	}{Destination: destination})
}

// Export writes the grave, heir and payment records to a spreadsheet.
func (a *App) Export(ctx context.Context, cfgPath string, opts ExportOptions) error {
	return a.runCommand(ctx, cfgPath, "export_graves", struct {
		Search      string `json:"search"`
		BlockID     int64  `json:"block_id"`
		YearFrom    int64  `json:"year_from"`
		YearTo      int64  `json:"year_to"`
		Destination string `json:"destination"`
	}{
		Search:      opts.Search,
		BlockID:     opts.BlockID,
		YearFrom:    opts.YearFrom,
		YearTo:      opts.YearTo,
		Destination: opts.Destination,
	})
}

// Dispatch runs a single named command with a raw JSON request body.
func (a *App) Dispatch(ctx context.Context, cfgPath, command, request string) error {
	return a.runCommand(ctx, cfgPath, command, json.RawMessage(request))
}

// Serve runs the line-delimited command loop over stdin/stdout. The
// config file, when one is in use, is watched and hot-reloaded.
func (a *App) Serve(ctx context.Context, cfgPath string) error {
	d, err := a.newDispatcher(cfgPath)
	if err != nil {
		return err
	}
	watchPath := cfgPath
	if watchPath != "" {
		if _, err := os.Stat(watchPath); err != nil {
			watchPath = ""
		}
	}
	return d.Serve(ctx, os.Stdin, a.out, watchPath)
}
