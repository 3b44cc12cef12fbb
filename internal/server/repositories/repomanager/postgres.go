// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/migrations"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/files"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/invoices"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/otpchallenges"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/reports"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/tenants"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Tenants(db dbx.DBTX) tenants.Repository {
	return tenants.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) OtpChallenges(db dbx.DBTX) otpchallenges.Repository {
	return otpchallenges.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Reports(db dbx.DBTX) reports.Repository {
	return reports.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AuditLogs(db dbx.DBTX) auditlogs.Repository {
	return auditlogs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Invoices(db dbx.DBTX) invoices.Repository {
	return invoices.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
