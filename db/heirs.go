package db

// heirs.go deals with heir (grave caretaker) database calls.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Heir is a person registered as responsible for a grave's upkeep.
// Order numbers define display priority among the heirs of one grave;
// by convention exactly one heir per grave is primary, though the store
// does not enforce this.
type Heir struct {
	ID           int64  `db:"id" json:"id"`
	GraveID      int64  `db:"grave_id" json:"grave_id"`
	OrderNumber  int64  `db:"order_number" json:"order_number"`
	FullName     string `db:"full_name" json:"full_name"`
	PhoneNumber  string `db:"phone_number" json:"phone_number"`
	Relationship string `db:"relationship" json:"relationship"`
	Address      string `db:"address" json:"address"`
	IsPrimary    bool   `db:"is_primary" json:"is_primary"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	UpdatedAt    string `db:"updated_at" json:"updated_at"`
}

// CreateHeirRequest carries the fields for a new heir. The optional
// text fields default to the empty string.
type CreateHeirRequest struct {
	GraveID      int64   `json:"grave_id"`
	OrderNumber  int64   `json:"order_number"`
	FullName     string  `json:"full_name"`
	PhoneNumber  *string `json:"phone_number"`
	Relationship *string `json:"relationship"`
	Address      *string `json:"address"`
	IsPrimary    bool    `json:"is_primary"`
}

// UpdateHeirRequest carries a partial heir update. A nil field leaves
// the stored value unchanged.
type UpdateHeirRequest struct {
	FullName     *string `json:"full_name"`
	PhoneNumber  *string `json:"phone_number"`
	Relationship *string `json:"relationship"`
	Address      *string `json:"address"`
	IsPrimary    *bool   `json:"is_primary"`
}

// ListHeirsForGrave returns the heirs of a grave ordered by their order
// number.
func (db *DB) ListHeirsForGrave(ctx context.Context, graveID int64) ([]Heir, error) {
	stmt := db.heirListStmt
	namedArgs := map[string]any{"grave_id": graveID}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("list heirs", err)
	}

	heirs := []Heir{}
	if err := stmt.SelectContext(ctx, &heirs, namedArgs); err != nil {
		return nil, queryErr("list heirs", err)
	}
	return heirs, nil
}

// GetHeir returns a single heir, or nil if no heir has the given id.
func (db *DB) GetHeir(ctx context.Context, id int64) (*Heir, error) {
	stmt := db.heirGetStmt
	namedArgs := map[string]any{"id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("get heir", err)
	}

	var heir Heir
	err := stmt.GetContext(ctx, &heir, namedArgs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("get heir", err)
	}
	return &heir, nil
}

// CreateHeir inserts a new heir and returns its assigned id.
func (db *DB) CreateHeir(ctx context.Context, req CreateHeirRequest) (int64, error) {
	stmt := db.heirInsertStmt
	namedArgs := heirInsertArgs(req)
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, queryErr("create heir", err)
	}

	res, err := stmt.ExecContext(ctx, namedArgs)
	if err != nil {
		return 0, queryErr("create heir", err)
	}
	return lastInsertID(res, "create heir")
}

// UpdateHeir applies a partial update. Unset fields keep their stored
// values. Returns ErrNotFound if no heir has the given id.
func (db *DB) UpdateHeir(ctx context.Context, id int64, req UpdateHeirRequest) error {
	stmt := db.heirUpdateStmt
	namedArgs := map[string]any{
		"id":           id,
		"full_name":    req.FullName,
		"phone_number": req.PhoneNumber,
		"relationship": req.Relationship,
		"address":      req.Address,
		"is_primary":   req.IsPrimary,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("update heir", err)
	}

	res, err := stmt.ExecContext(ctx, namedArgs)
	if err != nil {
		return queryErr("update heir", err)
	}
	return checkRowUpdated(res, "update heir", id)
}

// DeleteHeir deletes a single heir.
func (db *DB) DeleteHeir(ctx context.Context, id int64) error {
	stmt := db.heirDeleteStmt
	namedArgs := map[string]any{"id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("delete heir", err)
	}
	if _, err := stmt.ExecContext(ctx, namedArgs); err != nil {
		return queryErr("delete heir", err)
	}
	return nil
}

// ReplaceHeirsForGrave replaces the full heir list of a grave in one
// transaction: existing heirs are deleted, then the new list is
// inserted in order with each heir's grave id forced to graveID. A
// failure on any insert restores the previous list.
func (db *DB) ReplaceHeirsForGrave(ctx context.Context, graveID int64, heirs []CreateHeirRequest) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return queryErr("replace heirs", err)
	}
	defer tx.Rollback() // no-op after commit.

	del := tx.NamedStmtContext(ctx, db.heirDeleteByGraveStmt.NamedStmt)
	if _, err := del.ExecContext(ctx, map[string]any{"grave_id": graveID}); err != nil {
		return queryErr(fmt.Sprintf("delete heirs for grave %d", graveID), err)
	}

	ins := tx.NamedStmtContext(ctx, db.heirInsertStmt.NamedStmt)
	for i, heir := range heirs {
		heir.GraveID = graveID
		if _, err := ins.ExecContext(ctx, heirInsertArgs(heir)); err != nil {
			return queryErr(fmt.Sprintf("insert heir %d for grave %d", i+1, graveID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return queryErr("replace heirs", err)
	}
	return nil
}

// heirInsertArgs builds the named arguments for an heir insert,
// applying the empty-string defaults for optional fields.
func heirInsertArgs(req CreateHeirRequest) map[string]any {
	return map[string]any{
		"grave_id":     req.GraveID,
		"order_number": req.OrderNumber,
		"full_name":    req.FullName,
		"phone_number": orEmpty(req.PhoneNumber),
		"relationship": orEmpty(req.Relationship),
		"address":      orEmpty(req.Address),
		"is_primary":   req.IsPrimary,
	}
}
