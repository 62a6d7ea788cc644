package db

// Each query lives in a runnable sql file in the sql directory, written
// with sqlx-style :name parameters, and is prepared once on open as a
// named statement. The parameter names found in the file are recorded
// so argument maps can be verified before execution.

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"

	"github.com/jmoiron/sqlx"
)

// regexpNamedParam matches :name parameters in a query body. Double
// colons and colons inside quoted strings do not occur in these files.
var regexpNamedParam = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// namedStmt is an sql file parsed into an sqlx NamedStmt together with
// the parameter names the file expects.
type namedStmt struct {
	sqlFile string
	params  []string
	*sqlx.NamedStmt
}

// extractParams returns the sorted, de-duplicated :name parameters in a
// query body.
func extractParams(body []byte) []string {
	seen := map[string]bool{}
	var params []string
	for _, m := range regexpNamedParam.FindAllSubmatch(body, -1) {
		name := string(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		params = append(params, name)
	}
	sort.Strings(params)
	return params
}

// verifyArgs checks that the argument map provides exactly the
// parameters the statement's sql file declares.
func (n *namedStmt) verifyArgs(args map[string]any) error {
	if got, want := len(args), len(n.params); got != want {
		return fmt.Errorf(
			"argument count for %q incorrect: got %d want %d",
			n.sqlFile, got, want,
		)
	}
	for _, p := range n.params {
		if _, ok := args[p]; !ok {
			return fmt.Errorf("argument %q missing for %q", p, n.sqlFile)
		}
	}
	return nil
}

// prepNamedStatement reads an sql file from the store's sql filesystem
// and prepares it as a named statement.
func (db *DB) prepNamedStatement(fileFS fs.FS, filePath string) (*namedStmt, error) {
	body, err := fs.ReadFile(fileFS, filePath)
	if err != nil {
		return nil, fmt.Errorf("could not read query file %q: %w", filePath, err)
	}
	stmt, err := db.PrepareNamed(string(body))
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement %q: %w", filePath, err)
	}
	return &namedStmt{
		sqlFile:   filePath,
		params:    extractParams(body),
		NamedStmt: stmt,
	}, nil
}

// prepareNamedStatements prepares all named statements for this
// connection. Called once on open, after the schema script has run.
func (db *DB) prepareNamedStatements() error {
	var err error
	prep := func(dst **namedStmt, file string) {
		if err != nil {
			return
		}
		*dst, err = db.prepNamedStatement(db.sqlFS, file)
	}

	// Blocks.
	prep(&db.blockListStmt, blockListSQL)
	prep(&db.blockGetStmt, blockGetSQL)
	prep(&db.blockInsertStmt, blockInsertSQL)
	prep(&db.blockUpdateStmt, blockUpdateSQL)
	prep(&db.blockDeleteStmt, blockDeleteSQL)
	prep(&db.blockGraveCountStmt, blockGraveCountSQL)

	// Graves.
	prep(&db.graveListStmt, graveListSQL)
	prep(&db.graveCountStmt, graveCountSQL)
	prep(&db.graveExportStmt, graveExportSQL)
	prep(&db.graveGetStmt, graveGetSQL)
	prep(&db.graveInsertStmt, graveInsertSQL)
	prep(&db.graveUpdateStmt, graveUpdateSQL)
	prep(&db.graveDeleteStmt, graveDeleteSQL)

	// Heirs.
	prep(&db.heirListStmt, heirListSQL)
	prep(&db.heirGetStmt, heirGetSQL)
	prep(&db.heirInsertStmt, heirInsertSQL)
	prep(&db.heirUpdateStmt, heirUpdateSQL)
	prep(&db.heirDeleteStmt, heirDeleteSQL)
	prep(&db.heirDeleteByGraveStmt, heirDeleteByGraveSQL)

	// Payments.
	prep(&db.paymentListStmt, paymentListSQL)
	prep(&db.paymentFindStmt, paymentFindSQL)
	prep(&db.paymentInsertStmt, paymentInsertSQL)
	prep(&db.paymentDeleteStmt, paymentDeleteSQL)

	// Settings.
	prep(&db.settingsGetStmt, settingsGetSQL)
	prep(&db.settingsUpdateStmt, settingsUpdateSQL)
	prep(&db.settingsMarkBackupStmt, settingsMarkBackupSQL)

	return err
}
