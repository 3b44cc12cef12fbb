// Package auditlogs persists the append-only audit trail.
package auditlogs

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, l *models.AuditLog) (*models.AuditLog, error)
	// List returns up to limit entries, newest first.
	List(ctx context.Context, tenantID string, limit int) ([]*models.AuditLog, error)
}
