package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/files"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/invoices"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/otpchallenges"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/reports"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/tenants"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// the same repository against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Tenants(db dbx.DBTX) tenants.Repository
	Users(db dbx.DBTX) users.Repository
	OtpChallenges(db dbx.DBTX) otpchallenges.Repository
	Reports(db dbx.DBTX) reports.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
	Invoices(db dbx.DBTX) invoices.Repository
	Files(db dbx.DBTX) files.Repository
}
