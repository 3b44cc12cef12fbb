package services

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/files"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/invoices"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/otpchallenges"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/reports"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/tenants"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/users"
	"github.com/google/uuid"
)

const testTenant = "11111111-1111-1111-1111-111111111111"

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- in-memory repositories ---

type fakeUsers struct {
	byHash    map[string]*models.User
	upsertErr error
	getErr    error
}

func (f *fakeUsers) Upsert(_ context.Context, tenantID, email, emailHash string) (*models.User, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if u, ok := f.byHash[tenantID+"/"+emailHash]; ok {
		u.Email = email
		return u, nil
	}
	u := &models.User{ID: uuid.NewString(), TenantID: tenantID, Email: email, EmailHash: emailHash, Role: models.RoleMember}
	f.byHash[tenantID+"/"+emailHash] = u
	return u, nil
}

func (f *fakeUsers) GetByEmailHash(_ context.Context, tenantID, emailHash string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byHash[tenantID+"/"+emailHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byHash {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeOtps struct {
	mu   sync.Mutex
	list []*models.OtpChallenge
}

func (f *fakeOtps) Create(_ context.Context, c *models.OtpChallenge) (*models.OtpChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.NewString()
	f.list = append(f.list, c)
	return c, nil
}

func (f *fakeOtps) FindActive(_ context.Context, userID string, now time.Time) (*models.OtpChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *models.OtpChallenge
	for _, c := range f.list {
		if c.UserID != userID || c.ConsumedAt != nil || !c.ExpiresAt.After(now) {
			continue
		}
		if found == nil || !c.CreatedAt.Before(found.CreatedAt) {
			found = c
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	cp := *found
	return &cp, nil
}

func (f *fakeOtps) Consume(_ context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.list {
		if c.ID == id && c.ConsumedAt == nil {
			c.ConsumedAt = &now
			return nil
		}
	}
	return common.ErrorUnauthorized
}

func (f *fakeOtps) ReserveAttempt(_ context.Context, id string, max int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.list {
		if c.ID == id && c.ConsumedAt == nil && c.Attempts < max {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, common.ErrOtpLocked
}

type fakeReports struct {
	byID      map[string]*models.Report
	createErr error
	clock     time.Time
}

func (f *fakeReports) now() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeReports) Create(_ context.Context, r *models.Report) (*models.Report, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	r.ID = uuid.NewString()
	r.CreatedAt = f.now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	f.byID[r.ID] = &cp
	return r, nil
}

func (f *fakeReports) List(_ context.Context, tenantID string, flt reports.Filter) ([]*models.Report, error) {
	var out []*models.Report
	for _, r := range f.byID {
		if r.TenantID != tenantID {
			continue
		}
		if flt.Status != "" && r.Status != flt.Status {
			continue
		}
		if flt.Category != "" && (r.Category == nil || *r.Category != flt.Category) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeReports) Get(_ context.Context, tenantID, id string) (*models.Report, error) {
	r, ok := f.byID[id]
	if !ok || r.TenantID != tenantID {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReports) Update(_ context.Context, r *models.Report) (*models.Report, error) {
	if _, ok := f.byID[r.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	r.UpdatedAt = f.now()
	cp := *r
	f.byID[r.ID] = &cp
	return r, nil
}

func (f *fakeReports) Delete(_ context.Context, tenantID, id string) error {
	r, ok := f.byID[id]
	if !ok || r.TenantID != tenantID {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeAuditLogs struct {
	list      []*models.AuditLog
	createErr error
	lastLimit int
}

func (f *fakeAuditLogs) Create(_ context.Context, l *models.AuditLog) (*models.AuditLog, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	f.list = append(f.list, l)
	return l, nil
}

func (f *fakeAuditLogs) List(_ context.Context, tenantID string, limit int) ([]*models.AuditLog, error) {
	f.lastLimit = limit
	out := make([]*models.AuditLog, 0)
	for i := len(f.list) - 1; i >= 0 && len(out) < limit; i-- {
		if f.list[i].TenantID == tenantID {
			out = append(out, f.list[i])
		}
	}
	return out, nil
}

func (f *fakeAuditLogs) actions() []string {
	var out []string
	for _, l := range f.list {
		out = append(out, l.Action)
	}
	return out
}

func (f *fakeAuditLogs) last() *models.AuditLog {
	if len(f.list) == 0 {
		return nil
	}
	return f.list[len(f.list)-1]
}

type fakeInvoices struct {
	byID       map[string]*models.Invoice
	lastFilter invoices.Filter
	clock      time.Time
}

func (f *fakeInvoices) Create(_ context.Context, inv *models.Invoice) (*models.Invoice, error) {
	inv.ID = uuid.NewString()
	f.clock = f.clock.Add(time.Second)
	inv.CreatedAt, inv.UpdatedAt = f.clock, f.clock
	cp := *inv
	f.byID[inv.ID] = &cp
	return inv, nil
}

func (f *fakeInvoices) List(_ context.Context, tenantID string, flt invoices.Filter) ([]*models.Invoice, error) {
	f.lastFilter = flt
	out := make([]*models.Invoice, 0)
	for _, inv := range f.byID {
		if inv.TenantID == tenantID && (flt.Status == "" || inv.Status == flt.Status) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeInvoices) Get(_ context.Context, tenantID, id string) (*models.Invoice, error) {
	inv, ok := f.byID[id]
	if !ok || inv.TenantID != tenantID {
		return nil, common.ErrorNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoices) Update(_ context.Context, inv *models.Invoice) (*models.Invoice, error) {
	f.clock = f.clock.Add(time.Second)
	inv.UpdatedAt = f.clock
	cp := *inv
	f.byID[inv.ID] = &cp
	return inv, nil
}

type fakeFiles struct {
	list []*models.Attachment
}

func (f *fakeFiles) Create(_ context.Context, a *models.Attachment) (*models.Attachment, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	f.list = append(f.list, a)
	return a, nil
}

func (f *fakeFiles) ListByReport(_ context.Context, tenantID, reportID string) ([]*models.Attachment, error) {
	out := make([]*models.Attachment, 0)
	for _, a := range f.list {
		if a.TenantID == tenantID && a.ReportID != nil && *a.ReportID == reportID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	users    *fakeUsers
	otps     *fakeOtps
	reports  *fakeReports
	audit    *fakeAuditLogs
	invoices *fakeInvoices
	files    *fakeFiles
}

func newFakeRepoManager() *fakeRepoManager {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fakeRepoManager{
		users:    &fakeUsers{byHash: map[string]*models.User{}},
		otps:     &fakeOtps{},
		reports:  &fakeReports{byID: map[string]*models.Report{}, clock: base},
		audit:    &fakeAuditLogs{},
		invoices: &fakeInvoices{byID: map[string]*models.Invoice{}, clock: base},
		files:    &fakeFiles{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Tenants(dbx.DBTX) tenants.Repository { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository { return m.users }
func (m *fakeRepoManager) OtpChallenges(dbx.DBTX) otpchallenges.Repository { return m.otps }
func (m *fakeRepoManager) Reports(dbx.DBTX) reports.Repository { return m.reports }
func (m *fakeRepoManager) AuditLogs(dbx.DBTX) auditlogs.Repository { return m.audit }
func (m *fakeRepoManager) Invoices(dbx.DBTX) invoices.Repository { return m.invoices }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository { return m.files }

func newTestAudit(db *sql.DB, rm *fakeRepoManager) *AuditService {
	return NewAuditService(db, rm, logging.Discard())
}

func containsAction(rm *fakeRepoManager, action string) bool {
	return slices.Contains(rm.audit.actions(), action)
}
