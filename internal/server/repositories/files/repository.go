// Package files persists attachment records for presigned uploads.
package files

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Attachment) (*models.Attachment, error)
	ListByReport(ctx context.Context, tenantID, reportID string) ([]*models.Attachment, error)
}
