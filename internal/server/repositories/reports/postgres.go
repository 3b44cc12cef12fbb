package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

const reportColumns = `id, tenant_id, title, category, body_encrypted, body_nonce, status, risk_score, assignee_name, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*models.Report, error) {
	r := &models.Report{}
	err := s.Scan(&r.ID, &r.TenantID, &r.Title, &r.Category, &r.BodyEncrypted, &r.BodyNonce,
		&r.Status, &r.RiskScore, &r.AssigneeName, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *PostgresRepository) Create(ctx context.Context, rep *models.Report) (*models.Report, error) {
	query :=
		`INSERT INTO reports (tenant_id, title, category, body_encrypted, body_nonce, status, risk_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		rep.TenantID, rep.Title, rep.Category, rep.BodyEncrypted, rep.BodyNonce, rep.Status, rep.RiskScore).
		Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rep, nil
}

func (r *PostgresRepository) List(ctx context.Context, tenantID string, f Filter) ([]*models.Report, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + reportColumns + ` FROM reports WHERE tenant_id = $1`)
	args := []any{tenantID}

	if f.Status != "" {
		args = append(args, f.Status)
		fmt.Fprintf(&sb, ` AND status = $%d`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&sb, ` AND category = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, tenantID, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 AND tenant_id = $2`

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rep, nil
}

// Update writes every mutable column of rep and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, rep *models.Report) (*models.Report, error) {
	query :=
		`UPDATE reports
		 SET title = $3, body_encrypted = $4, body_nonce = $5, status = $6,
		     risk_score = $7, assignee_name = $8, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, rep.ID, rep.TenantID, rep.Title, rep.BodyEncrypted, rep.BodyNonce,
		rep.Status, rep.RiskScore, rep.AssigneeName).Scan(&rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rep, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOne(res, common.ErrorNotFound)
}
