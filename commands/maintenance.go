package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"astana/db"
)

func handleGetDatabasePath(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	path, err := d.DatabasePath()
	if err != nil {
		return nil, err
	}
	return struct {
		Path string `json:"path"`
	}{Path: path}, nil
}

func handleGetDatabaseStats(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	return d.withStore(func(store *db.DB) (any, error) {
		return store.Stats(ctx)
	})
}

func handleVerifyDatabase(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	return d.withStore(func(store *db.DB) (any, error) {
		ok, err := store.Verify(ctx)
		if err != nil {
			return nil, err
		}
		return struct {
			OK bool `json:"ok"`
		}{OK: ok}, nil
	})
}

func handleBackupDatabase(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		Destination string `json:"destination"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.Destination == "" {
		return nil, fmt.Errorf("backup destination is required")
	}
	return d.withStore(func(store *db.DB) (any, error) {
		if err := store.BackupTo(ctx, req.Destination); err != nil {
			return nil, err
		}
		if err := store.MarkBackedUpNow(ctx); err != nil {
			return nil, err
		}
		return struct {
			Destination string `json:"destination"`
		}{Destination: req.Destination}, nil
	})
}
