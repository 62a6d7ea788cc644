// Package commands is the request/response surface between the UI
// layer and the records store. It is a marshalling layer only: each
// command deserializes a typed request, opens a store connection scoped
// to that one call, runs the matching store operation and serializes
// the result or error.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"astana/config"
	"astana/db"
	"astana/internal/mounts"
	"astana/internal/paths"
)

// Response kinds for failures the UI treats specially.
const (
	kindNotFound = "not_found"
	kindConflict = "conflict"
)

// errDuplicatePayment guards the at-most-one-payment-per-year
// convention; see handleCreatePayment.
var errDuplicatePayment = errors.New("payment already recorded for this grave and year")

// Envelope is the wire form of a command request.
type Envelope struct {
	Command string          `json:"command"`
	Request json.RawMessage `json:"request"`
}

// Response is the wire form of a command result.
type Response struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// handlerFunc runs one command against an open store.
type handlerFunc func(ctx context.Context, d *Dispatcher, req json.RawMessage) (any, error)

// Dispatcher routes command envelopes to their handlers. The
// configuration may be swapped at runtime (config hot-reload in serve
// mode), so access goes through the mutex.
type Dispatcher struct {
	mu     sync.RWMutex
	cfg    *config.Config
	logger *log.Logger
}

// New returns a Dispatcher for the given configuration.
func New(cfg *config.Config, logger *log.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger}
}

// Config returns the current configuration.
func (d *Dispatcher) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// SetConfig swaps the configuration, used by the serve loop when the
// config file changes on disk.
func (d *Dispatcher) SetConfig(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

// DatabasePath resolves the store's file location from configuration,
// environment and platform defaults.
func (d *Dispatcher) DatabasePath() (string, error) {
	return paths.ResolveDatabasePath(d.Config().DatabasePath)
}

// OpenStore opens a store connection for a single command. The caller
// must Close it.
func (d *Dispatcher) OpenStore() (*db.DB, error) {
	cfg := d.Config()
	dbPath, err := paths.ResolveDatabasePath(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve database path: %w", err)
	}
	if cfg.SQLDir == "" {
		return db.Open(dbPath, d.logger)
	}
	sqlFS, err := mounts.NewFileMount("sql", db.SQLEmbeddedFS, cfg.SQLDir)
	if err != nil {
		return nil, fmt.Errorf("could not mount sql dir: %w", err)
	}
	return db.OpenFS(dbPath, sqlFS, d.logger)
}

// withStore opens a store for the duration of fn.
func (d *Dispatcher) withStore(fn func(store *db.DB) (any, error)) (any, error) {
	store, err := d.OpenStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return fn(store)
}

// handlers maps command names to their handlers. One entry per store
// operation plus the composite and maintenance commands.
var handlers = map[string]handlerFunc{
	"get_database_path":  handleGetDatabasePath,
	"get_database_stats": handleGetDatabaseStats,
	"verify_database":    handleVerifyDatabase,
	"backup_database":    handleBackupDatabase,

	"get_blocks":      handleGetBlocks,
	"get_block_by_id": handleGetBlockByID,
	"create_block":    handleCreateBlock,
	"update_block":    handleUpdateBlock,
	"delete_block":    handleDeleteBlock,
	"get_block_stats": handleGetBlockStats,

	"get_graves":              handleGetGraves,
	"count_graves":            handleCountGraves,
	"get_grave_by_id":         handleGetGraveByID,
	"get_grave_detail":        handleGetGraveDetail,
	"create_grave_with_heirs": handleCreateGraveWithHeirs,
	"update_grave":            handleUpdateGrave,
	"delete_grave":            handleDeleteGrave,
	"export_graves":           handleExportGraves,

	"get_heirs_by_grave": handleGetHeirsByGrave,
	"get_heir_by_id":     handleGetHeirByID,
	"create_heir":        handleCreateHeir,
	"update_heir":        handleUpdateHeir,
	"delete_heir":        handleDeleteHeir,
	"update_grave_heirs": handleUpdateGraveHeirs,

	"get_payments_by_grave":         handleGetPaymentsByGrave,
	"get_payment_by_grave_and_year": handleGetPaymentByGraveAndYear,
	"create_payment":                handleCreatePayment,
	"delete_payment":                handleDeletePayment,
	"get_payment_summary":           handleGetPaymentSummary,

	"get_settings":    handleGetSettings,
	"update_settings": handleUpdateSettings,
}

// Dispatch deserializes one envelope, runs its command and returns the
// serialized response. Failures are returned inside the response, never
// as a marshalling error: the wire format is always a Response.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) []byte {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return marshalResponse(Response{OK: false, Error: fmt.Sprintf("invalid request envelope: %v", err)})
	}

	handler, ok := handlers[env.Command]
	if !ok {
		return marshalResponse(Response{OK: false, Error: fmt.Sprintf("unknown command %q", env.Command)})
	}

	data, err := handler(ctx, d, env.Request)
	if err != nil {
		d.logger.Warn("command failed", "command", env.Command, "err", err)
		return marshalResponse(errorResponse(err))
	}
	return marshalResponse(Response{OK: true, Data: data})
}

// errorResponse classifies an error for the UI.
func errorResponse(err error) Response {
	resp := Response{OK: false, Error: err.Error()}
	var conflict *db.ReferentialConflict
	switch {
	case errors.Is(err, db.ErrNotFound):
		resp.Kind = kindNotFound
	case errors.As(err, &conflict), errors.Is(err, errDuplicatePayment):
		resp.Kind = kindConflict
	}
	return resp
}

// marshalResponse serializes a response; a Response cannot fail to
// marshal other than through its Data, in which case a plain error
// response is substituted.
func marshalResponse(resp Response) []byte {
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(Response{OK: false, Error: fmt.Sprintf("response marshalling failed: %v", err)})
	}
	return out
}

// decode unmarshals a request body, treating an absent body as the
// zero request.
func decode[T any](raw json.RawMessage, req *T) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
