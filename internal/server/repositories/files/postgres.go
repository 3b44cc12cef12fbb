package files

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

// PostgresRepository implements attachment storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attachment) (*models.Attachment, error) {
	query :=
		`INSERT INTO attachments (tenant_id, report_id, object_key, filename, mime_type, storage_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, a.TenantID, a.ReportID, a.ObjectKey, a.Filename, a.MimeType, a.StorageURL).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByReport(ctx context.Context, tenantID, reportID string) ([]*models.Attachment, error) {
	query :=
		`SELECT id, tenant_id, report_id, object_key, filename, mime_type, storage_url, created_at
		 FROM attachments
		 WHERE tenant_id = $1 AND report_id = $2
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, tenantID, reportID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Attachment, 0)
	for rows.Next() {
		a := &models.Attachment{}
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ReportID, &a.ObjectKey, &a.Filename, &a.MimeType, &a.StorageURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
