package commands

import (
	"context"
	"encoding/json"

	"astana/db"
)

type idRequest struct {
	ID int64 `json:"id"`
}

func handleGetBlocks(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	return d.withStore(func(store *db.DB) (any, error) {
		return store.ListBlocks(ctx)
	})
}

func handleGetBlockByID(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.GetBlock(ctx, req.ID)
	})
}

func handleCreateBlock(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req db.CreateBlockRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.CreateBlock(ctx, req)
	})
}

func handleUpdateBlock(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		ID    int64                 `json:"id"`
		Block db.UpdateBlockRequest `json:"block"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		if err := store.UpdateBlock(ctx, req.ID, req.Block); err != nil {
			return nil, err
		}
		return store.GetBlock(ctx, req.ID)
	})
}

func handleDeleteBlock(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return nil, store.DeleteBlock(ctx, req.ID)
	})
}

func handleGetBlockStats(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		BlockID int64 `json:"block_id"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.BlockStatsFor(ctx, req.BlockID)
	})
}
