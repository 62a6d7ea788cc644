package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"astana/config"
	"astana/internal/watcher"
)

// maxRequestBytes bounds a single request line; an export of a large
// grave set still fits comfortably.
const maxRequestBytes = 4 * 1024 * 1024

// Serve runs the line-delimited command loop: one JSON envelope per
// input line, one JSON response per output line, in order. When
// configPath names a config file it is watched for changes and reloaded
// without interrupting the loop. Serve returns when the input closes or
// the context is cancelled.
func (d *Dispatcher) Serve(ctx context.Context, in io.Reader, out io.Writer, configPath string) error {
	d.startupCheck(ctx)

	g, ctx := errgroup.WithContext(ctx)

	if configPath != "" {
		notifier, err := watcher.New(configPath)
		if err != nil {
			return fmt.Errorf("could not watch config file: %w", err)
		}
		g.Go(func() error {
			return notifier.Watch(ctx)
		})
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-notifier.Update():
					if !ok {
						return nil
					}
					d.reloadConfig(configPath)
				}
			}
		})
	}

	lines := make(chan []byte)
	g.Go(func() error {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), maxRequestBytes)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case lines <- line:
			}
		}
		return scanner.Err()
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-lines:
				if !ok {
					return errServeDone
				}
				if len(line) == 0 {
					continue
				}
				requestID := uuid.NewString()
				d.logger.Debug("request received", "id", requestID, "bytes", len(line))
				resp := d.Dispatch(ctx, line)
				if _, err := fmt.Fprintf(out, "%s\n", resp); err != nil {
					return fmt.Errorf("could not write response %s: %w", requestID, err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, errServeDone) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// errServeDone signals orderly shutdown through the errgroup when the
// input stream closes.
var errServeDone = fmt.Errorf("input closed")

// startupCheck opens the store once to apply the schema, verify the
// expected tables and log store statistics. Failures are logged but do
// not stop the serve loop: individual commands surface their own
// errors.
func (d *Dispatcher) startupCheck(ctx context.Context) {
	store, err := d.OpenStore()
	if err != nil {
		d.logger.Error("store unavailable at startup", "err", err)
		return
	}
	defer store.Close()

	ok, err := store.Verify(ctx)
	switch {
	case err != nil:
		d.logger.Warn("store verification failed", "err", err)
	case !ok:
		d.logger.Warn("store schema incomplete", "path", store.Path())
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		d.logger.Warn("could not read store statistics", "err", err)
		return
	}
	d.logger.Info("store ready",
		"path", store.Path(),
		"graves", stats.GravesCount,
		"heirs", stats.HeirsCount,
		"payments", stats.PaymentsCount,
		"size", stats.FormattedSize())
}

// reloadConfig re-reads the config file and swaps it in, keeping the
// previous configuration on any load or validation error.
func (d *Dispatcher) reloadConfig(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		d.logger.Warn("config reload rejected", "path", configPath, "err", err)
		return
	}
	d.SetConfig(cfg)
	d.logger.Info("config reloaded", "path", configPath)
}
