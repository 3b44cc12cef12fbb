package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, server_id, title, category, body, status, assignee, risk_score,
	created_at, updated_at, pending, deleted`

// SQLiteRepository implements Repository on top of a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rep *models.Report) error {
	query := `INSERT INTO reports (` + selectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			server_id = excluded.server_id,
			title = excluded.title,
			category = excluded.category,
			body = excluded.body,
			status = excluded.status,
			assignee = excluded.assignee,
			risk_score = excluded.risk_score,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			pending = excluded.pending,
			deleted = excluded.deleted`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.ServerID, rep.Title, rep.Category, rep.Body, rep.Status, rep.Assignee, rep.RiskScore,
		formatTime(rep.CreatedAt), formatTime(rep.UpdatedAt), rep.Pending, rep.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*models.Report, error) {
	var (
		rep                  models.Report
		createdAt, updatedAt string
	)
	if err := s.Scan(&rep.ID, &rep.ServerID, &rep.Title, &rep.Category, &rep.Body, &rep.Status, &rep.Assignee,
		&rep.RiskScore, &createdAt, &updatedAt, &rep.Pending, &rep.Deleted); err != nil {
		return nil, err
	}

	var err error
	if rep.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if rep.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	return &rep, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Report, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM reports WHERE id = ? AND deleted = 0`, id)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

func (r *SQLiteRepository) List(ctx context.Context, status string) ([]*models.Report, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+selectColumns+` FROM reports WHERE deleted = 0 ORDER BY created_at DESC`)
	}
	return r.query(ctx, `SELECT `+selectColumns+` FROM reports WHERE deleted = 0 AND status = ? ORDER BY created_at DESC`, status)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET deleted = 1, pending = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return dbx.RowsAffectedOne(res, common.ErrorNotFound)
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.Report, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM reports WHERE pending = 1 ORDER BY created_at`)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, serverID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET pending = 0, server_id = ? WHERE id = ?`, serverID, id)
	if err != nil {
		return fmt.Errorf("failed to mark report synced: %w", err)
	}
	return dbx.RowsAffectedOne(res, common.ErrorNotFound)
}

func (r *SQLiteRepository) ReplaceID(ctx context.Context, oldID, newID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET id = ? WHERE id = ?`, newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to replace report id: %w", err)
	}
	return dbx.RowsAffectedOne(res, common.ErrorNotFound)
}

func (r *SQLiteRepository) Purge(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to purge report: %w", err)
	}
	return nil
}
