package db

// blocks.go deals with block (cemetery section) database calls.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Block is an administrative section of grave plots sharing a fee
// schedule.
type Block struct {
	ID            int64  `db:"id" json:"id"`
	Code          string `db:"code" json:"code"`
	Description   string `db:"description" json:"description"`
	TotalCapacity int64  `db:"total_capacity" json:"total_capacity"`
	AnnualFee     int64  `db:"annual_fee" json:"annual_fee"`
	Status        string `db:"status" json:"status"`
	CreatedAt     string `db:"created_at" json:"created_at"`
	UpdatedAt     string `db:"updated_at" json:"updated_at"`
}

// CreateBlockRequest carries the fields for a new block. Description is
// optional and defaults to the empty string.
type CreateBlockRequest struct {
	Code          string  `json:"code"`
	Description   *string `json:"description"`
	TotalCapacity int64   `json:"total_capacity"`
	AnnualFee     int64   `json:"annual_fee"`
	Status        string  `json:"status"`
}

// UpdateBlockRequest carries a partial block update. A nil field leaves
// the stored value unchanged.
type UpdateBlockRequest struct {
	Code          *string `json:"code"`
	Description   *string `json:"description"`
	TotalCapacity *int64  `json:"total_capacity"`
	AnnualFee     *int64  `json:"annual_fee"`
	Status        *string `json:"status"`
}

// BlockStats reports the occupancy of a block. Available may go
// negative when occupancy exceeds capacity; that is reported, not
// prevented.
type BlockStats struct {
	TotalCapacity int64 `json:"total_capacity"`
	Occupied      int64 `json:"occupied"`
	Available     int64 `json:"available"`
}

// ListBlocks returns all blocks ordered by code.
func (db *DB) ListBlocks(ctx context.Context) ([]Block, error) {
	stmt := db.blockListStmt
	namedArgs := map[string]any{}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("list blocks", err)
	}

	blocks := []Block{}
	if err := stmt.SelectContext(ctx, &blocks, namedArgs); err != nil {
		db.logger.Warn("block listing failed", "err", err)
		return nil, queryErr("list blocks", err)
	}
	return blocks, nil
}

// GetBlock returns a single block, or nil if no block has the given id.
// Absence is not an error.
func (db *DB) GetBlock(ctx context.Context, id int64) (*Block, error) {
	stmt := db.blockGetStmt
	namedArgs := map[string]any{"id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("get block", err)
	}

	var block Block
	err := stmt.GetContext(ctx, &block, namedArgs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("get block", err)
	}
	return &block, nil
}

// CreateBlock inserts a new block and returns its assigned id.
func (db *DB) CreateBlock(ctx context.Context, req CreateBlockRequest) (int64, error) {
	stmt := db.blockInsertStmt
	namedArgs := map[string]any{
		"code":           req.Code,
		"description":    orEmpty(req.Description),
		"total_capacity": req.TotalCapacity,
		"annual_fee":     req.AnnualFee,
		"status":         req.Status,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, queryErr("create block", err)
	}

	res, err := stmt.ExecContext(ctx, namedArgs)
	if err != nil {
		return 0, queryErr("create block", err)
	}
	return lastInsertID(res, "create block")
}

// UpdateBlock applies a partial update. Unset fields keep their stored
// values. Returns ErrNotFound if no block has the given id.
func (db *DB) UpdateBlock(ctx context.Context, id int64, req UpdateBlockRequest) error {
	stmt := db.blockUpdateStmt
	namedArgs := map[string]any{
		"id":             id,
		"code":           req.Code,
		"description":    req.Description,
		"total_capacity": req.TotalCapacity,
		"annual_fee":     req.AnnualFee,
		"status":         req.Status,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("update block", err)
	}

	res, err := stmt.ExecContext(ctx, namedArgs)
	if err != nil {
		return queryErr("update block", err)
	}
	return checkRowUpdated(res, "update block", id)
}

// DeleteBlock deletes a block. The delete is refused with a
// ReferentialConflict if any grave still references the block.
func (db *DB) DeleteBlock(ctx context.Context, id int64) error {
	graveCount, err := db.graveCountForBlock(ctx, id)
	if err != nil {
		return err
	}
	if graveCount > 0 {
		return &ReferentialConflict{Entity: "block", ID: id, DependentCount: graveCount}
	}

	stmt := db.blockDeleteStmt
	namedArgs := map[string]any{"id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("delete block", err)
	}
	if _, err := stmt.ExecContext(ctx, namedArgs); err != nil {
		return queryErr("delete block", err)
	}
	return nil
}

// BlockStatsFor reports capacity and occupancy for one block. Returns
// ErrNotFound if the block does not exist.
func (db *DB) BlockStatsFor(ctx context.Context, blockID int64) (BlockStats, error) {
	var stats BlockStats

	block, err := db.GetBlock(ctx, blockID)
	if err != nil {
		return stats, err
	}
	if block == nil {
		return stats, fmt.Errorf("block stats for %d: %w", blockID, ErrNotFound)
	}

	occupied, err := db.graveCountForBlock(ctx, blockID)
	if err != nil {
		return stats, err
	}

	stats.TotalCapacity = block.TotalCapacity
	stats.Occupied = occupied
	stats.Available = block.TotalCapacity - occupied
	return stats, nil
}

// graveCountForBlock counts the graves referencing a block.
func (db *DB) graveCountForBlock(ctx context.Context, blockID int64) (int64, error) {
	stmt := db.blockGraveCountStmt
	namedArgs := map[string]any{"block_id": blockID}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, queryErr("count block graves", err)
	}

	var count int64
	if err := stmt.GetContext(ctx, &count, namedArgs); err != nil {
		return 0, queryErr("count block graves", err)
	}
	return count, nil
}

// orEmpty dereferences an optional string, defaulting to "".
func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// checkRowUpdated converts a zero-rows-affected update into ErrNotFound
// so partial updates of missing rows fail loudly rather than silently
// doing nothing.
func checkRowUpdated(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return queryErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, ErrNotFound)
	}
	return nil
}
