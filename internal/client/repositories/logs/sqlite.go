package logs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, e *models.LogEntry) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO logs (id, action, target_id, detail, at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.TargetID, e.Detail, e.At.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to add log entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.LogEntry) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO logs (id, action, target_id, detail, at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET action = excluded.action, target_id = excluded.target_id,
			detail = excluded.detail, at = excluded.at`,
		e.ID, e.Action, e.TargetID, e.Detail, e.At.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to upsert log entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, action, target_id, detail, at FROM logs ORDER BY at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select logs: %w", err)
	}
	defer rows.Close()

	var result []*models.LogEntry
	for rows.Next() {
		var (
			e  models.LogEntry
			at string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.TargetID, &e.Detail, &at); err != nil {
			return nil, err
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("bad log time %q: %w", at, err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM logs`); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	return nil
}
