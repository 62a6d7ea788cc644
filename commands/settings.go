package commands

import (
	"context"
	"encoding/json"

	"astana/db"
)

func handleGetSettings(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	return d.withStore(func(store *db.DB) (any, error) {
		return store.GetSettings(ctx)
	})
}

func handleUpdateSettings(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req db.UpdateSettingsRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		if err := store.UpdateSettings(ctx, req); err != nil {
			return nil, err
		}
		return store.GetSettings(ctx)
	})
}
