// Package reports persists the console's local copy of cases.
package reports

import (
	"context"

	"github.com/dmitrijs2005/silentvoice/internal/client/models"
)

type Repository interface {
	// Upsert inserts r or replaces every column of the row with the same id.
	Upsert(ctx context.Context, r *models.Report) error
	// Get returns a live report or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Report, error)
	// List returns live reports newest first; an empty status means all.
	List(ctx context.Context, status string) ([]*models.Report, error)
	// SoftDelete tombstones a live report and marks it pending.
	SoftDelete(ctx context.Context, id string) error
	// ListPending returns every row with unsynced changes, tombstones included.
	ListPending(ctx context.Context) ([]*models.Report, error)
	// MarkSynced clears the pending flag and records the server id.
	MarkSynced(ctx context.Context, id, serverID string) error
	// ReplaceID renames a row, used once the server assigned its own id.
	ReplaceID(ctx context.Context, oldID, newID string) error
	// Purge removes a row for good.
	Purge(ctx context.Context, id string) error
}
