// Package tenants persists tenants.
package tenants

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type Repository interface {
	Ensure(ctx context.Context, code, name string) (*models.Tenant, error)
	GetByCode(ctx context.Context, code string) (*models.Tenant, error)
}
