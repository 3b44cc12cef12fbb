package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Ensure creates the tenant or refreshes its name when the code exists.
func (r *PostgresRepository) Ensure(ctx context.Context, code, name string) (*models.Tenant, error) {
	query :=
		`INSERT INTO tenants (code, name)
		 VALUES ($1, $2)
		 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, code, name, created_at
		 `

	t := &models.Tenant{}
	err := r.db.QueryRowContext(ctx, query, code, name).Scan(&t.ID, &t.Code, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*models.Tenant, error) {
	query :=
		`SELECT id, code, name, created_at FROM tenants
		 WHERE code = $1
		 `

	t := &models.Tenant{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(&t.ID, &t.Code, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
