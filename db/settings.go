package db

// settings.go deals with the singleton foundation settings row. The row
// is seeded by the schema script, so a missing row indicates a damaged
// store rather than a normal empty state.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Settings is the singleton (id = 1) foundation metadata row.
type Settings struct {
	ID             int64   `db:"id" json:"id"`
	FoundationName string  `db:"foundation_name" json:"foundation_name"`
	Address        string  `db:"address" json:"address"`
	Phone          string  `db:"phone" json:"phone"`
	Email          string  `db:"email" json:"email"`
	LogoPath       string  `db:"logo_path" json:"logo_path"`
	ActiveYear     int64   `db:"active_year" json:"active_year"`
	LastBackup     *string `db:"last_backup" json:"last_backup"`
	AutoBackup     bool    `db:"auto_backup" json:"auto_backup"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	UpdatedAt      string  `db:"updated_at" json:"updated_at"`
}

// UpdateSettingsRequest carries a partial settings update. A nil field
// leaves the stored value unchanged.
type UpdateSettingsRequest struct {
	FoundationName *string `json:"foundation_name"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	LogoPath       *string `json:"logo_path"`
	ActiveYear     *int64  `json:"active_year"`
	AutoBackup     *bool   `json:"auto_backup"`
}

// GetSettings returns the settings row. Returns ErrNotFound if the
// seeded singleton is missing.
func (db *DB) GetSettings(ctx context.Context) (*Settings, error) {
	stmt := db.settingsGetStmt
	namedArgs := map[string]any{}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("get settings", err)
	}

	var settings Settings
	err := stmt.GetContext(ctx, &settings, namedArgs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings row: %w", ErrNotFound)
	}
	if err != nil {
		return nil, queryErr("get settings", err)
	}
	return &settings, nil
}

// UpdateSettings applies a partial update to the settings row.
func (db *DB) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) error {
	stmt := db.settingsUpdateStmt
	namedArgs := map[string]any{
		"foundation_name": req.FoundationName,
		"address":         req.Address,
		"phone":           req.Phone,
		"email":           req.Email,
		"logo_path":       req.LogoPath,
		"active_year":     req.ActiveYear,
		"auto_backup":     req.AutoBackup,
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("update settings", err)
	}

	res, err := stmt.ExecContext(ctx, namedArgs)
	if err != nil {
		return queryErr("update settings", err)
	}
	return checkRowUpdated(res, "update settings", 1)
}

// MarkBackedUpNow sets the last-backup timestamp to the current time.
func (db *DB) MarkBackedUpNow(ctx context.Context) error {
	stmt := db.settingsMarkBackupStmt
	namedArgs := map[string]any{}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("mark backed up", err)
	}
	if _, err := stmt.ExecContext(ctx, namedArgs); err != nil {
		return queryErr("mark backed up", err)
	}
	return nil
}
