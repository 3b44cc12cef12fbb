// Package logs persists the console's local audit trail.
package logs

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/client/models"
)

type Repository interface {
	Add(ctx context.Context, e *models.LogEntry) error
	// Upsert is Add that replaces an entry with the same id; used by import.
	Upsert(ctx context.Context, e *models.LogEntry) error
	// List returns entries newest first.
	List(ctx context.Context) ([]*models.LogEntry, error)
	Clear(ctx context.Context) error
}
