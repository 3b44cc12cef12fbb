// Package invoices persists billing invoices.
package invoices

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

// Filter narrows List. Query is a case-insensitive substring of the
// customer name.
type Filter struct {
	Status string
	Query  string
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	List(ctx context.Context, tenantID string, f Filter) ([]*models.Invoice, error)
	Get(ctx context.Context, tenantID, id string) (*models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
}
