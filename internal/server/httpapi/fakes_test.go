package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/services"
)

const (
	testTenant     = "tenant-1"
	memberToken    = "member-token"
	adminToken     = "admin-token"
	testReportID   = "0b1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	testReceipt    = "receipt-token"
	testExpiryUnix = 1760000000
)

var (
	memberUser = &models.User{ID: "user-1", TenantID: testTenant, Email: "user@example.co.jp", Role: models.RoleMember}
	adminUser  = &models.User{ID: "admin-1", TenantID: testTenant, Email: "admin@example.co.jp", Role: models.RoleAdmin}
)

type fakeAuth struct {
	sendErr   error
	verifyErr error
	sentTo    string
	verified  []string
	loggedOut []string
}

func (f *fakeAuth) SendOtp(_ context.Context, tenantID, email string) (time.Time, error) {
	if f.sendErr != nil {
		return time.Time{}, f.sendErr
	}
	f.sentTo = email
	return time.Unix(testExpiryUnix, 0), nil
}

func (f *fakeAuth) VerifyOtp(_ context.Context, tenantID, email, code string) (*services.LoginResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	f.verified = append(f.verified, email+"/"+code)
	return &services.LoginResult{
		Token: memberToken,
		User:  services.SessionUser{UserID: memberUser.ID, Role: memberUser.Role, Email: email},
	}, nil
}

func (f *fakeAuth) Logout(_ context.Context, tenantID, token string) {
	f.loggedOut = append(f.loggedOut, token)
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case memberToken:
		return memberUser, nil
	case adminToken:
		return adminUser, nil
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeAuth) Session(ctx context.Context, token string) *services.SessionUser {
	u, err := f.Authenticate(ctx, token)
	if err != nil {
		return nil
	}
	return &services.SessionUser{UserID: u.ID, Role: u.Role, Email: u.Email}
}

type fakeReports struct {
	items   map[string]services.ReportView
	patches []services.ReportPatch
	actors  []string
	err     error
}

func newFakeReports() *fakeReports {
	return &fakeReports{items: map[string]services.ReportView{
		testReportID: {ReportID: testReportID, Title: "残業代の未払い", Body: "先月から残業代が支払われていません。", Status: "受付"},
	}}
}

func (f *fakeReports) Create(_ context.Context, tenantID string, in services.CreateReportInput) (*services.CreatedReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := services.ReportView{ReportID: "new-report", Title: in.Title, Body: in.Body, Status: "受付"}
	f.items[v.ReportID] = v
	return &services.CreatedReport{ReportView: v, Receipt: testReceipt}, nil
}

func (f *fakeReports) List(_ context.Context, tenantID string, flt services.ReportFilter) ([]services.ReportView, error) {
	var out []services.ReportView
	for _, v := range f.items {
		if flt.Status == "" || v.Status == flt.Status {
			out = append(out, v)
		}
	}
	return out, f.err
}

func (f *fakeReports) Get(_ context.Context, tenantID, id string) (*services.ReportView, error) {
	v, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &v, nil
}

func (f *fakeReports) Update(_ context.Context, tenantID, actorID, id string, p services.ReportPatch) (*services.ReportView, error) {
	v, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.patches = append(f.patches, p)
	f.actors = append(f.actors, actorID)
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.RiskScore != nil {
		v.RiskScore = *p.RiskScore
	}
	f.items[id] = v
	return &v, nil
}

func (f *fakeReports) Delete(_ context.Context, tenantID, actorID, id string) error {
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	f.actors = append(f.actors, actorID)
	return nil
}

func (f *fakeReports) ReceiptStatus(_ context.Context, tenantID, receipt string) (*services.ReceiptStatus, error) {
	if receipt != testReceipt {
		return nil, common.ErrInvalidToken
	}
	return &services.ReceiptStatus{ReportID: testReportID, Status: "調査"}, nil
}

type fakeAudit struct {
	entries []services.AuditEntry
	limits  []int
}

func (f *fakeAudit) Record(_ context.Context, tenantID string, e services.AuditEntry) (*models.AuditLog, error) {
	if strings.TrimSpace(e.Action) == "" {
		return nil, validationError("action is required")
	}
	f.entries = append(f.entries, e)
	return &models.AuditLog{ID: "log-1", TenantID: tenantID, Action: e.Action}, nil
}

func (f *fakeAudit) List(_ context.Context, tenantID string, limit int) ([]*models.AuditLog, error) {
	f.limits = append(f.limits, limit)
	return nil, nil
}

type fakeFiles struct {
	in []services.PresignInput
}

func (f *fakeFiles) Presign(_ context.Context, tenantID string, in services.PresignInput) (*services.PresignResult, error) {
	if in.Filename == "" {
		return nil, validationError("filename is required")
	}
	f.in = append(f.in, in)
	return &services.PresignResult{UploadURL: "http://upload/k", Method: http.MethodPut, ObjectKey: "k", Mode: services.ModeDryRun}, nil
}

func (f *fakeFiles) Attachments(_ context.Context, tenantID, reportID string) ([]services.AttachmentView, error) {
	return nil, nil
}

type fakeDrafts struct{}

func (fakeDrafts) Create(_ context.Context, tenantID string, in services.DraftInput) (*services.DraftResult, error) {
	return &services.DraftResult{Draft: "draft for " + in.Title, Mode: services.ModeDryRun}, nil
}

type fakeBilling struct {
	list     []services.InvoiceView
	filters  []services.InvoiceFilter
	exported []string
}

func (f *fakeBilling) Create(_ context.Context, tenantID, actorID string, in services.CreateInvoiceInput) (*services.InvoiceView, error) {
	v := services.InvoiceView{InvoiceID: "inv-1", CustomerName: in.CustomerName, AmountJPY: in.AmountJPY, Status: "draft"}
	f.list = append(f.list, v)
	return &v, nil
}

func (f *fakeBilling) List(_ context.Context, tenantID string, flt services.InvoiceFilter) ([]services.InvoiceView, error) {
	f.filters = append(f.filters, flt)
	return f.list, nil
}

func (f *fakeBilling) Update(_ context.Context, tenantID, actorID, id string, p services.InvoicePatch) (*services.InvoiceView, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeBilling) Export(_ context.Context, tenantID string, flt services.InvoiceFilter) ([]services.InvoiceView, error) {
	f.filters = append(f.filters, flt)
	return f.list, nil
}

func (f *fakeBilling) RecordExport(_ context.Context, tenantID, actorID, format string, count int) {
	f.exported = append(f.exported, format)
}

type fakeSystem struct {
	ok bool
}

func (f fakeSystem) Health(context.Context) services.Health {
	return services.Health{OK: f.ok, Timestamp: time.Unix(testExpiryUnix, 0).UTC()}
}

func (f fakeSystem) Info(ctx context.Context) services.SystemInfo {
	return services.SystemInfo{Health: f.Health(ctx), Env: []services.EnvEntry{{Key: "S3_BUCKET", Value: "(未設定)"}}}
}

type recordingAlerter struct {
	mu       sync.Mutex
	subjects []string
}

func (a *recordingAlerter) Publish(_ context.Context, subject, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subjects = append(a.subjects, subject)
}

type testAPI struct {
	*API
	auth    *fakeAuth
	reports *fakeReports
	audit   *fakeAudit
	files   *fakeFiles
	billing *fakeBilling
	alerter *recordingAlerter
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ta := &testAPI{
		auth:    &fakeAuth{},
		reports: newFakeReports(),
		audit:   &fakeAudit{},
		files:   &fakeFiles{},
		billing: &fakeBilling{},
		alerter: &recordingAlerter{},
	}
	ta.API = &API{
		Auth:    ta.auth,
		Reports: ta.reports,
		Audit:   ta.audit,
		Files:   ta.files,
		Drafts:  fakeDrafts{},
		Billing: ta.billing,
		System:  fakeSystem{ok: true},
		Alerter: ta.alerter,
		Logger:  logging.Discard(),
		Options: Options{
			TenantID:     testTenant,
			WebOrigins:   []string{"http://localhost:3000"},
			CookieMaxAge: common.SessionCookieMaxAge,
		},
	}
	ta.handler = ta.Routes()
	return ta
}

func (ta *testAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}
