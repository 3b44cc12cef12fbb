package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/dbx"
)

// SQLiteRepository keeps the session cache in the metadata table of the
// console database. Values are stored as text.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT CAST(value AS TEXT) FROM metadata WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value.String, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to drop %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, CAST(value AS TEXT) FROM metadata ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list session cache: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session cache row: %w", err)
		}
		out[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session cache: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) LoadSession(ctx context.Context) (*Session, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if all[KeySessionToken] == "" {
		return nil, nil
	}
	return &Session{Token: all[KeySessionToken], Email: all[KeyEmail], Role: all[KeyRole]}, nil
}

// SaveSession writes all three fields; run it inside a transaction so a
// half-saved login never survives a crash.
func (r *SQLiteRepository) SaveSession(ctx context.Context, s Session) error {
	for _, kv := range [][2]string{{KeySessionToken, s.Token}, {KeyEmail, s.Email}, {KeyRole, s.Role}} {
		if err := r.Set(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) ForgetSession(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (?, ?, ?)`,
		KeySessionToken, KeyEmail, KeyRole)
	if err != nil {
		return fmt.Errorf("failed to forget session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, at time.Time) error {
	return r.Set(ctx, KeyLastSync, at.UTC().Format(time.RFC3339))
}
