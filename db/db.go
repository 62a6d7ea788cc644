// Package db is the records store of the astana application: a single
// SQLite database file holding blocks, graves, heirs, payments and the
// foundation settings, with typed CRUD and query operations over them.
//
// Each query is held in a runnable sql file in the sql directory and
// prepared as a named statement when the store is opened. The schema
// script is applied on every open and is idempotent, so the store
// creates itself on first access.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx" // helper library
	_ "modernc.org/sqlite"    // pure go sqlite driver
)

// DB wraps the sqlx connection with the application's prepared
// statements. All operations are synchronous; callers scope a DB to one
// externally triggered operation and Close it afterwards.
type DB struct {
	*sqlx.DB
	path   string
	sqlFS  fs.FS
	logger *log.Logger

	// Prepared statements.
	blockListStmt       *namedStmt
	blockGetStmt        *namedStmt
	blockInsertStmt     *namedStmt
	blockUpdateStmt     *namedStmt
	blockDeleteStmt     *namedStmt
	blockGraveCountStmt *namedStmt

	graveListStmt   *namedStmt
	graveCountStmt  *namedStmt
	graveExportStmt *namedStmt
	graveGetStmt    *namedStmt
	graveInsertStmt *namedStmt
	graveUpdateStmt *namedStmt
	graveDeleteStmt *namedStmt

	heirListStmt          *namedStmt
	heirGetStmt           *namedStmt
	heirInsertStmt        *namedStmt
	heirUpdateStmt        *namedStmt
	heirDeleteStmt        *namedStmt
	heirDeleteByGraveStmt *namedStmt

	paymentListStmt   *namedStmt
	paymentFindStmt   *namedStmt
	paymentInsertStmt *namedStmt
	paymentDeleteStmt *namedStmt

	settingsGetStmt        *namedStmt
	settingsUpdateStmt     *namedStmt
	settingsMarkBackupStmt *namedStmt
}

// Open opens (or creates) the store at path using the embedded sql
// filesystem. Parent directories are created if absent and the schema
// script is applied before any statement is prepared.
func Open(path string, logger *log.Logger) (*DB, error) {
	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("could not sub-mount embedded sql fs: %w", err)
	}
	return OpenFS(path, sqlFS, logger)
}

// OpenFS is Open with a caller-supplied sql filesystem, used for
// development overrides of the embedded sql directory and for tests.
func OpenFS(path string, sqlFS fs.FS, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	inMemory := strings.Contains(path, ":memory:")

	// dataSource enables foreign keys (needed for the grave cascades)
	// and WAL mode on file-backed databases.
	var dataSource string
	if inMemory {
		// In-memory databases must share one cache or each pooled
		// connection would see its own empty database.
		if !strings.Contains(path, "cache=shared") {
			return nil, &StoreOpenError{
				Path: path,
				Err:  fmt.Errorf("in-memory connection should contain 'cache=shared'"),
			}
		}
		dataSource = fmt.Sprintf("%s&_pragma=foreign_keys(1)", path)
	} else {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, &StoreOpenError{Path: path, Err: err}
			}
		}
		dataSource = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	sqlDB, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return nil, &StoreOpenError{Path: path, Err: err}
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, &StoreOpenError{Path: path, Err: err}
	}

	db := &DB{
		DB:     sqlx.NewDb(sqlDB, "sqlite"),
		path:   path,
		sqlFS:  sqlFS,
		logger: logger,
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.prepareNamedStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not prepare named statements: %w", err)
	}

	return db, nil
}

// Path returns the location of the backing database file.
func (db *DB) Path() string {
	return db.path
}

// initSchema applies the idempotent schema script.
func (db *DB) initSchema() error {
	schema, err := fs.ReadFile(db.sqlFS, schemaSQL)
	if err != nil {
		return &SchemaError{Err: fmt.Errorf("could not read schema file: %w", err)}
	}
	if _, err := db.ExecContext(context.Background(), string(schema)); err != nil {
		return &SchemaError{Err: err}
	}
	return nil
}

// lastInsertID extracts the assigned row id from an insert result.
func lastInsertID(res sql.Result, op string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, queryErr(op, err)
	}
	return id, nil
}
