package auditlogs

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.AuditLog) (*models.AuditLog, error) {
	query :=
		`INSERT INTO audit_logs (tenant_id, actor_id, action, detail, target_id, report_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, l.TenantID, l.ActorID, l.Action, l.Detail, l.TargetID, l.ReportID).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) List(ctx context.Context, tenantID string, limit int) ([]*models.AuditLog, error) {
	query :=
		`SELECT id, tenant_id, actor_id, action, detail, target_id, report_id, created_at
		 FROM audit_logs
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.AuditLog, 0)
	for rows.Next() {
		l := &models.AuditLog{}
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ActorID, &l.Action, &l.Detail, &l.TargetID, &l.ReportID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
