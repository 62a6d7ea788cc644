package db

// maintenance.go deals with store health checks, statistics and the
// whole-database backup.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// expectedTables are the tables Verify checks for after open.
var expectedTables = []string{"blocks", "graves", "heirs", "payments", "settings"}

// DatabaseStats reports row counts and the on-disk size of the store.
type DatabaseStats struct {
	GravesCount   int64 `json:"graves_count"`
	HeirsCount    int64 `json:"heirs_count"`
	PaymentsCount int64 `json:"payments_count"`
	SizeBytes     int64 `json:"size_bytes"`
}

// TotalRecords returns the record count across the three data tables.
func (s DatabaseStats) TotalRecords() int64 {
	return s.GravesCount + s.HeirsCount + s.PaymentsCount
}

// FormattedSize renders the on-disk size for display.
func (s DatabaseStats) FormattedSize() string {
	size := float64(s.SizeBytes)
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", s.SizeBytes)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", size/1024)
	default:
		return fmt.Sprintf("%.1f MB", size/(1024*1024))
	}
}

// Verify reports whether all expected tables are present. It does not
// validate column shapes; it is a post-open health check only.
func (db *DB) Verify(ctx context.Context) (bool, error) {
	const query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	for _, table := range expectedTables {
		var count int64
		if err := db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
			return false, queryErr(fmt.Sprintf("verify table %s", table), err)
		}
		if count == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Stats returns row counts and the on-disk size. Individual count
// failures are non-fatal and degrade to zero; a size computation
// failure is surfaced.
func (db *DB) Stats(ctx context.Context) (DatabaseStats, error) {
	var stats DatabaseStats

	count := func(table string) int64 {
		var n int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			db.logger.Warn("stats count failed", "table", table, "err", err)
			return 0
		}
		return n
	}
	stats.GravesCount = count("graves")
	stats.HeirsCount = count("heirs")
	stats.PaymentsCount = count("payments")

	const sizeQuery = `SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`
	if err := db.QueryRowContext(ctx, sizeQuery).Scan(&stats.SizeBytes); err != nil {
		return stats, queryErr("database size", err)
	}
	return stats, nil
}

// BackupTo writes a consistent snapshot of the whole database to
// destination using VACUUM INTO, which is safe to run while this
// connection is open. An existing file at destination is replaced.
func (db *DB) BackupTo(ctx context.Context, destination string) error {
	if dir := filepath.Dir(destination); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &BackupError{Path: destination, Err: err}
		}
	}

	// VACUUM INTO refuses to overwrite an existing file.
	if _, err := os.Stat(destination); err == nil {
		if err := os.Remove(destination); err != nil {
			return &BackupError{Path: destination, Err: err}
		}
	}

	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, destination); err != nil {
		return &BackupError{Path: destination, Err: err}
	}
	return nil
}
