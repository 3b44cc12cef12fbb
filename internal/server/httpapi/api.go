package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/notify"
	"github.com/dmitrijs2005/silentvoice/internal/server/services"
)

type AuthService interface {
	SendOtp(ctx context.Context, tenantID, email string) (time.Time, error)
	VerifyOtp(ctx context.Context, tenantID, email, code string) (*services.LoginResult, error)
	Logout(ctx context.Context, tenantID, token string)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Session(ctx context.Context, token string) *services.SessionUser
}

type ReportService interface {
	Create(ctx context.Context, tenantID string, in services.CreateReportInput) (*services.CreatedReport, error)
	List(ctx context.Context, tenantID string, f services.ReportFilter) ([]services.ReportView, error)
	Get(ctx context.Context, tenantID, id string) (*services.ReportView, error)
	Update(ctx context.Context, tenantID, actorID, id string, p services.ReportPatch) (*services.ReportView, error)
	Delete(ctx context.Context, tenantID, actorID, id string) error
	ReceiptStatus(ctx context.Context, tenantID, receipt string) (*services.ReceiptStatus, error)
}

type AuditService interface {
	Record(ctx context.Context, tenantID string, e services.AuditEntry) (*models.AuditLog, error)
	List(ctx context.Context, tenantID string, limit int) ([]*models.AuditLog, error)
}

type FileService interface {
	Presign(ctx context.Context, tenantID string, in services.PresignInput) (*services.PresignResult, error)
	Attachments(ctx context.Context, tenantID, reportID string) ([]services.AttachmentView, error)
}

type DraftService interface {
	Create(ctx context.Context, tenantID string, in services.DraftInput) (*services.DraftResult, error)
}

type BillingService interface {
	Create(ctx context.Context, tenantID, actorID string, in services.CreateInvoiceInput) (*services.InvoiceView, error)
	List(ctx context.Context, tenantID string, f services.InvoiceFilter) ([]services.InvoiceView, error)
	Update(ctx context.Context, tenantID, actorID, id string, p services.InvoicePatch) (*services.InvoiceView, error)
	Export(ctx context.Context, tenantID string, f services.InvoiceFilter) ([]services.InvoiceView, error)
	RecordExport(ctx context.Context, tenantID, actorID, format string, count int)
}

type SystemService interface {
	Health(ctx context.Context) services.Health
	Info(ctx context.Context) services.SystemInfo
}

// Options configure the API beyond its services.
type Options struct {
	TenantID     string
	WebOrigins   []string
	SecureCookie bool
	CookieMaxAge time.Duration
}

// API holds the handlers. Every field is required.
type API struct {
	Auth    AuthService
	Reports ReportService
	Audit   AuditService
	Files   FileService
	Drafts  DraftService
	Billing BillingService
	System  SystemService
	Alerter notify.Alerter
	Logger  logging.Logger
	Options Options
}

// invoiceWriter renders an invoice export in one format.
type invoiceWriter func(w io.Writer, list []services.InvoiceView) error
