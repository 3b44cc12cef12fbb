package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

const invoiceColumns = `id, tenant_id, customer_name, period_from, period_to, amount_jpy, memo, status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s scanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := s.Scan(&inv.ID, &inv.TenantID, &inv.CustomerName, &inv.PeriodFrom, &inv.PeriodTo,
		&inv.AmountJPY, &inv.Memo, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *PostgresRepository) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	query :=
		`INSERT INTO invoices (tenant_id, customer_name, period_from, period_to, amount_jpy, memo, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, inv.TenantID, inv.CustomerName, inv.PeriodFrom, inv.PeriodTo,
		inv.AmountJPY, inv.Memo, inv.Status).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

// escapeLike makes q match literally inside an ILIKE pattern.
func escapeLike(q string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
}

func (r *PostgresRepository) List(ctx context.Context, tenantID string, f Filter) ([]*models.Invoice, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1`)
	args := []any{tenantID}

	if f.Status != "" {
		args = append(args, f.Status)
		fmt.Fprintf(&sb, ` AND status = $%d`, len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+escapeLike(f.Query)+"%")
		fmt.Fprintf(&sb, ` AND customer_name ILIKE $%d`, len(args))
	}
	args = append(args, f.Limit)
	fmt.Fprintf(&sb, ` ORDER BY updated_at DESC LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, tenantID, id string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND tenant_id = $2`

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

func (r *PostgresRepository) Update(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	query :=
		`UPDATE invoices
		 SET customer_name = $3, period_from = $4, period_to = $5, amount_jpy = $6,
		     memo = $7, status = $8, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, inv.ID, inv.TenantID, inv.CustomerName, inv.PeriodFrom, inv.PeriodTo,
		inv.AmountJPY, inv.Memo, inv.Status).Scan(&inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}
