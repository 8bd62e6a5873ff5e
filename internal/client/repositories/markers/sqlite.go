package markers

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteRepository implements Repository over the local sqlite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) IsSet(ctx context.Context, identity string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_markers WHERE identity=?`, identity).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to read migration marker: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, identity string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_markers (identity, migrated_at) VALUES (?, ?)
		 ON CONFLICT (identity) DO NOTHING`,
		identity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set migration marker: %w", err)
	}
	return nil
}
