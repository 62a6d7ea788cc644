package commands

import (
	"context"
	"encoding/json"

	"astana/db"
)

func handleGetHeirsByGrave(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		GraveID int64 `json:"grave_id"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.ListHeirsForGrave(ctx, req.GraveID)
	})
}

func handleGetHeirByID(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.GetHeir(ctx, req.ID)
	})
}

func handleCreateHeir(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req db.CreateHeirRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.CreateHeir(ctx, req)
	})
}

func handleUpdateHeir(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		ID   int64                `json:"id"`
		Heir db.UpdateHeirRequest `json:"heir"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		if err := store.UpdateHeir(ctx, req.ID, req.Heir); err != nil {
			return nil, err
		}
		return store.GetHeir(ctx, req.ID)
	})
}

func handleDeleteHeir(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return nil, store.DeleteHeir(ctx, req.ID)
	})
}

func handleUpdateGraveHeirs(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		GraveID int64                  `json:"grave_id"`
		Heirs   []db.CreateHeirRequest `json:"heirs"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		if err := store.ReplaceHeirsForGrave(ctx, req.GraveID, req.Heirs); err != nil {
			return nil, err
		}
		return store.ListHeirsForGrave(ctx, req.GraveID)
	})
}
