// Package reports persists whistleblower reports with sealed bodies.
package reports

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status   string
	Category string
}

type Repository interface {
	Create(ctx context.Context, r *models.Report) (*models.Report, error)
	List(ctx context.Context, tenantID string, f Filter) ([]*models.Report, error)
	Get(ctx context.Context, tenantID, id string) (*models.Report, error)
	Update(ctx context.Context, r *models.Report) (*models.Report, error)
	Delete(ctx context.Context, tenantID, id string) error
}
