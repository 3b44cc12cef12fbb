// Package users persists console users keyed by tenant and email hash.
package users

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, tenantID, email, emailHash string) (*models.User, error)
	GetByEmailHash(ctx context.Context, tenantID, emailHash string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
