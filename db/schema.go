package db

import "embed"

// SQLEmbeddedFS carries the schema and query files compiled into the
// binary. A directory on disk may be mounted over it for development
// via internal/mounts.
//
//go:embed sql
var SQLEmbeddedFS embed.FS

// schemaSQL is the idempotent schema-creation script. It is executed as
// a batch on every open; all statements use IF NOT EXISTS semantics.
const schemaSQL = "schema.sql"

// Query files prepared as named statements on open.
const (
	blockListSQL       = "block_list.sql"
	blockGetSQL        = "block_get.sql"
	blockInsertSQL     = "block_insert.sql"
	blockUpdateSQL     = "block_update.sql"
	blockDeleteSQL     = "block_delete.sql"
	blockGraveCountSQL = "block_grave_count.sql"

	graveListSQL   = "grave_list.sql"
	graveCountSQL  = "grave_count.sql"
	graveExportSQL = "grave_export.sql"
	graveGetSQL    = "grave_get.sql"
	graveInsertSQL = "grave_insert.sql"
	graveUpdateSQL = "grave_update.sql"
	graveDeleteSQL = "grave_delete.sql"

	heirListSQL          = "heir_list.sql"
	heirGetSQL           = "heir_get.sql"
	heirInsertSQL        = "heir_insert.sql"
	heirUpdateSQL        = "heir_update.sql"
	heirDeleteSQL        = "heir_delete.sql"
	heirDeleteByGraveSQL = "heir_delete_by_grave.sql"

	paymentListSQL   = "payment_list.sql"
	paymentFindSQL   = "payment_find.sql"
	paymentInsertSQL = "payment_insert.sql"
	paymentDeleteSQL = "payment_delete.sql"

	settingsGetSQL        = "settings_get.sql"
	settingsUpdateSQL     = "settings_update.sql"
	settingsMarkBackupSQL = "settings_mark_backup.sql"
)
