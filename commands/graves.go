package commands

import (
	"context"
	"encoding/json"

	"astana/db"
)

type graveListRequest struct {
	Search  string `json:"search"`
	BlockID int64  `json:"block_id"`
	Limit   int64  `json:"limit"`
	Offset  int64  `json:"offset"`
}

func (r graveListRequest) filter() db.GraveFilter {
	return db.GraveFilter{Search: r.Search, BlockID: r.BlockID}
}

// GraveDetail bundles a grave with its heirs for the detail view.
type GraveDetail struct {
	db.GraveWithBlock
	Heirs []db.Heir `json:"heirs"`
}

func handleGetGraves(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req graveListRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = int64(d.Config().PageLength)
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.ListGraves(ctx, req.filter(), req.Limit, req.Offset)
	})
}

func handleCountGraves(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req graveListRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		count, err := store.CountGraves(ctx, req.filter())
		if err != nil {
			return nil, err
		}
		return struct {
			Count int64 `json:"count"`
		}{Count: count}, nil
	})
}

func handleGetGraveByID(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.GetGrave(ctx, req.ID)
	})
}

func handleGetGraveDetail(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		grave, err := store.GetGrave(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if grave == nil {
			return nil, nil
		}
		heirs, err := store.ListHeirsForGrave(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return GraveDetail{GraveWithBlock: *grave, Heirs: heirs}, nil
	})
}

func handleCreateGraveWithHeirs(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		Grave db.CreateGraveRequest  `json:"grave"`
		Heirs []db.CreateHeirRequest `json:"heirs"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.CreateGraveWithHeirs(ctx, req.Grave, req.Heirs)
	})
}

func handleUpdateGrave(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		ID    int64                 `json:"id"`
		Grave db.UpdateGraveRequest `json:"grave"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		if err := store.UpdateGrave(ctx, req.ID, req.Grave); err != nil {
			return nil, err
		}
		return store.GetGrave(ctx, req.ID)
	})
}

func handleDeleteGrave(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return nil, store.DeleteGrave(ctx, req.ID)
	})
}
