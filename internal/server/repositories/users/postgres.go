package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

const userColumns = `id, tenant_id, email, email_hash, role, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts the user or, when the tenant already knows the email hash,
// refreshes the stored email. Concurrent first logins for one address converge on a
// single row.
func (r *PostgresRepository) Upsert(ctx context.Context, tenantID, email, emailHash string) (*models.User, error) {
	query :=
		`INSERT INTO users (tenant_id, email, email_hash)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tenant_id, email_hash) DO UPDATE SET email = EXCLUDED.email
		 RETURNING ` + userColumns

	return r.scanOne(r.db.QueryRowContext(ctx, query, tenantID, email, emailHash))
}

// GetByEmailHash looks the address up within one tenant only.
func (r *PostgresRepository) GetByEmailHash(ctx context.Context, tenantID, emailHash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND email_hash = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tenantID, emailHash))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.EmailHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
