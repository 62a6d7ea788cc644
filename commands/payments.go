package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"astana/db"
)

func handleGetPaymentsByGrave(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		GraveID int64 `json:"grave_id"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.ListPaymentsForGrave(ctx, req.GraveID)
	})
}

func handleGetPaymentByGraveAndYear(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		GraveID int64 `json:"grave_id"`
		Year    int64 `json:"year"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return store.FindPayment(ctx, req.GraveID, req.Year)
	})
}

func handleCreatePayment(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req db.CreatePaymentRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		existing, err := store.FindPayment(ctx, req.GraveID, req.Year)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("grave %d year %d: %w", req.GraveID, req.Year, errDuplicatePayment)
		}
		return store.CreatePayment(ctx, req)
	})
}

func handleDeletePayment(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req idRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return d.withStore(func(store *db.DB) (any, error) {
		return nil, store.DeletePayment(ctx, req.ID)
	})
}

// PaymentSummaryPage is one page of per-grave payment summaries.
type PaymentSummaryPage struct {
	Items      []db.GravePaymentSummary `json:"items"`
	Pagination *Pagination              `json:"pagination"`
}

func handleGetPaymentSummary(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req struct {
		Search  string `json:"search"`
		BlockID int64  `json:"block_id"`
		Year    int64  `json:"year"`
		Page    int64  `json:"page"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	pageLength := int64(d.Config().PageLength)

	return d.withStore(func(store *db.DB) (any, error) {
		year := req.Year
		if year == 0 {
			settings, err := store.GetSettings(ctx)
			if err != nil {
				return nil, err
			}
			year = settings.ActiveYear
		}
		filter := db.GraveFilter{Search: req.Search, BlockID: req.BlockID}
		total, err := store.CountGraves(ctx, filter)
		if err != nil {
			return nil, err
		}
		offset := (req.Page - 1) * pageLength
		items, err := store.PaymentSummaryForGraves(ctx, filter, year, pageLength, offset)
		if err != nil {
			return nil, err
		}
		return PaymentSummaryPage{
			Items:      items,
			Pagination: NewPagination(total, pageLength, req.Page),
		}, nil
	})
}
