package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var layoutSQL string

// layoutVersion is stored in the database header as PRAGMA user_version.
// A fresh file reports 0.
const layoutVersion = 1

// ErrJournalFormat means the file was written by an incompatible mseedcut.
var ErrJournalFormat = errors.New("incompatible journal format")

// prepare installs the extractions table on a fresh file and refuses files
// stamped with any other layout.
func (s *Store) prepare(ctx context.Context) error {
	version, err := storedVersion(ctx, s.db)
	if err != nil {
		return err
	}
	switch version {
	case layoutVersion:
		return nil
	case 0:
		return install(ctx, s.db)
	default:
		return fmt.Errorf("%w: %s has layout %d, this build writes %d; move it aside to start a new journal",
			ErrJournalFormat, s.path, version, layoutVersion)
	}
}

func storedVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read journal layout: %w", err)
	}
	return version, nil
}

func install(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal install: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, layoutSQL); err != nil {
		return fmt.Errorf("install journal tables: %w", err)
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", layoutVersion)); err != nil {
		return fmt.Errorf("stamp journal layout: %w", err)
	}
	return tx.Commit()
}
