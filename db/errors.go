package db

// Error taxonomy for the records store. Lookup misses (a block or grave
// that simply isn't there) are not errors; they return nil results.
// ErrNotFound is reserved for operations that address a row which must
// exist, such as partial updates or the settings singleton.

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that an operation addressed a row that does not
// exist. Wrapped with context by the operation concerned.
var ErrNotFound = errors.New("record not found")

// StoreOpenError reports that the backing file or its directory could
// not be created, opened or locked.
type StoreOpenError struct {
	Path string
	Err  error
}

func (e *StoreOpenError) Error() string {
	return fmt.Sprintf("could not open store at %q: %v", e.Path, e.Err)
}

func (e *StoreOpenError) Unwrap() error { return e.Err }

// SchemaError reports that the schema script could not be applied to an
// otherwise open database.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema initialization failed: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// QueryError wraps a failed statement with the name of the attempted
// operation so callers can log meaningfully.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// queryErr is shorthand for building a *QueryError.
func queryErr(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}

// ReferentialConflict reports a delete blocked by dependent rows.
type ReferentialConflict struct {
	Entity         string
	ID             int64
	DependentCount int64
}

func (e *ReferentialConflict) Error() string {
	return fmt.Sprintf(
		"cannot delete %s %d: %d dependent record(s) still associated",
		e.Entity, e.ID, e.DependentCount,
	)
}

// BackupError reports a failed whole-database backup.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup to %q failed: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }
