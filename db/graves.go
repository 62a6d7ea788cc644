package db

// graves.go deals with grave (plot record) database calls, including
// the composite create-with-heirs operation and the bulk export used
// for spreadsheet reporting.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// exportConcurrency bounds the concurrent heir/payment lookups used to
// assemble an export dataset.
const exportConcurrency = 4

// Grave is a single burial plot record.
type Grave struct {
	ID           int64  `db:"id" json:"id"`
	DeceasedName string `db:"deceased_name" json:"deceased_name"`
	BlockID      int64  `db:"block_id" json:"block_id"`
	Number       string `db:"number" json:"number"`
	DateOfDeath  string `db:"date_of_death" json:"date_of_death"`
	BurialDate   string `db:"burial_date" json:"burial_date"`
	Notes        string `db:"notes" json:"notes"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	UpdatedAt    string `db:"updated_at" json:"updated_at"`
}

// GraveWithBlock is a grave joined with its block's code and fee, the
// shape used by listings and lookups.
type GraveWithBlock struct {
	Grave
	BlockCode string `db:"block_code" json:"block_code"`
	AnnualFee int64  `db:"annual_fee" json:"annual_fee"`
}

// GraveFilter restricts grave listings. An empty Search disables text
// matching; a zero BlockID disables the block restriction.
type GraveFilter struct {
	Search  string `json:"search"`
	BlockID int64  `json:"block_id"`
}

// CreateGraveRequest carries the fields for a new grave. BurialDate and
// Notes are optional and default to the empty string.
type CreateGraveRequest struct {
	DeceasedName string  `json:"deceased_name"`
	BlockID      int64   `json:"block_id"`
	Number       string  `json:"number"`
	DateOfDeath  string  `json:"date_of_death"`
	BurialDate   *string `json:"burial_date"`
	Notes        *string `json:"notes"`
}

// UpdateGraveRequest carries a partial grave update. A nil field leaves
// the stored value unchanged.
type UpdateGraveRequest struct {
	DeceasedName *string `json:"deceased_name"`
	BlockID      *int64  `json:"block_id"`
	Number       *string `json:"number"`
	DateOfDeath  *string `json:"date_of_death"`
	BurialDate   *string `json:"burial_date"`
	Notes        *string `json:"notes"`
}

// GraveExport is one grave with its full heir list and payment history,
// as returned by ExportGravesWithHeirsAndPayments.
type GraveExport struct {
	GraveWithBlock
	Heirs    []Heir    `json:"heirs"`
	Payments []Payment `json:"payments"`
}

// filterArgs builds the named arguments shared by the grave listing,
// counting and export statements.
func (f GraveFilter) filterArgs() map[string]any {
	return map[string]any{
		"search":   f.Search,
		"block_id": f.BlockID,
	}
}

// ListGraves returns graves joined with their block, newest first,
// restricted by filter and paginated by limit/offset.
func (db *DB) ListGraves(ctx context.Context, filter GraveFilter, limit, offset int64) ([]GraveWithBlock, error) {
	stmt := db.graveListStmt
	namedArgs := filter.filterArgs()
	namedArgs["limit"] = limit
	namedArgs["offset"] = offset
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("list graves", err)
	}

	graves := []GraveWithBlock{}
	if err := stmt.SelectContext(ctx, &graves, namedArgs); err != nil {
		db.logger.Warn("grave listing failed", "err", err)
		return nil, queryErr("list graves", err)
	}
	return graves, nil
}

// CountGraves returns the number of graves matching filter, for
// pagination alongside ListGraves.
func (db *DB) CountGraves(ctx context.Context, filter GraveFilter) (int64, error) {
	stmt := db.graveCountStmt
	namedArgs := filter.filterArgs()
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, queryErr("count graves", err)
	}

	var count int64
	if err := stmt.GetContext(ctx, &count, namedArgs); err != nil {
		return 0, queryErr("count graves", err)
	}
	return count, nil
}

// GetGrave returns a single grave joined with its block, or nil if no
// grave has the given id.
func (db *DB) GetGrave(ctx context.Context, id int64) (*GraveWithBlock, error) {
	stmt := db.graveGetStmt
	namedArgs := map[string]any{"id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("get grave", err)
	}

	var grave GraveWithBlock
	err := stmt.GetContext(ctx, &grave, namedArgs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("get grave", err)
	}
	return &grave, nil
}

// CreateGraveWithHeirs inserts a grave and its heirs in one
// transaction; a failure on any heir rolls the grave back too. Heirs
// are inserted in list order with their grave id forced to the new
// grave's id. Returns the new grave id.
func (db *DB) CreateGraveWithHeirs(ctx context.Context, grave CreateGraveRequest, heirs []CreateHeirRequest) (int64, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, queryErr("create grave with heirs", err)
	}
	defer tx.Rollback() // no-op after commit.

	res, err := tx.NamedStmtContext(ctx, db.graveInsertStmt.NamedStmt).ExecContext(ctx, graveInsertArgs(grave))
	if err != nil {
		return 0, queryErr("create grave", err)
	}
	graveID, err := lastInsertID(res, "create grave")
	if err != nil {
		return 0, err
	}

	heirInsert := tx.NamedStmtContext(ctx, db.heirInsertStmt.NamedStmt)
	for i, heir := range heirs {
		heir.GraveID = graveID
		if _, err := heirInsert.ExecContext(ctx, heirInsertArgs(heir)); err != nil {
			return 0, queryErr(fmt.Sprintf("create heir %d for grave %d", i+1, graveID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, queryErr("create grave with heirs", err)
	}
	return graveID, nil
}

// UpdateGrave applies a partial update. Unset fields keep their stored
// values. Returns ErrNotFound if no grave has the given id.
func (db *DB) UpdateGrave(ctx context.Context, id int64, req UpdateGraveRequest) error {
	stmt := db.graveUpdateStmt
	namedArgs := map[string]any{
		"id":            id,
		"deceased_name": req.DeceasedName,
		"block_id":      req.BlockID,
		"number":        req.Number,
		"date_of_death": req.DateOfDeath,
		"burial_date":   req.BurialDate,
		"notes":         req.Notes,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("update grave", err)
	}

	res, err := stmt.ExecContext(ctx, namedArgs)
	if err != nil {
		return queryErr("update grave", err)
	}
	return checkRowUpdated(res, "update grave", id)
}

// DeleteGrave deletes a grave; its heirs and payments are removed by
// the schema-level cascade.
func (db *DB) DeleteGrave(ctx context.Context, id int64) error {
	stmt := db.graveDeleteStmt
	namedArgs := map[string]any{"id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("delete grave", err)
	}
	if _, err := stmt.ExecContext(ctx, namedArgs); err != nil {
		return queryErr("delete grave", err)
	}
	return nil
}

// ExportGravesWithHeirsAndPayments returns every grave matching filter
// together with its full heir list and payment history, ordered by
// block code then plot number. Heir and payment lookups run on a
// bounded errgroup over the connection pool.
func (db *DB) ExportGravesWithHeirsAndPayments(ctx context.Context, filter GraveFilter) ([]GraveExport, error) {
	stmt := db.graveExportStmt
	namedArgs := filter.filterArgs()
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("export graves", err)
	}

	graves := []GraveWithBlock{}
	if err := stmt.SelectContext(ctx, &graves, namedArgs); err != nil {
		return nil, queryErr("export graves", err)
	}

	exports := make([]GraveExport, len(graves))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, grave := range graves {
		g.Go(func() error {
			heirs, err := db.ListHeirsForGrave(ctx, grave.ID)
			if err != nil {
				return err
			}
			payments, err := db.ListPaymentsForGrave(ctx, grave.ID)
			if err != nil {
				return err
			}
			exports[i] = GraveExport{
				GraveWithBlock: grave,
				Heirs:          heirs,
				Payments:       payments,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return exports, nil
}

// graveInsertArgs builds the named arguments for a grave insert,
// applying the empty-string defaults for optional fields.
func graveInsertArgs(req CreateGraveRequest) map[string]any {
	return map[string]any{
		"deceased_name": req.DeceasedName,
		"block_id":      req.BlockID,
		"number":        req.Number,
		"date_of_death": req.DateOfDeath,
		"burial_date":   orEmpty(req.BurialDate),
		"notes":         orEmpty(req.Notes),
	}
}
