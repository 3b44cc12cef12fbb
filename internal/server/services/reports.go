package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/cryptox"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/auth"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/reports"
)

const (
	minReportTitle = 4
	minReportBody  = 10
)

// ReportNotifier tells staff about new reports.
type ReportNotifier interface {
	NotifyReport(ctx context.Context, subject, body string) error
}

type ReportView struct {
	ReportID     string    `json:"reportId"`
	Title        string    `json:"title"`
	Category     *string   `json:"category"`
	Body         string    `json:"body"`
	Status       string    `json:"status"`
	RiskScore    int       `json:"riskScore"`
	AssigneeName *string   `json:"assigneeName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreatedReport carries the receipt the anonymous reporter keeps to check
// on progress later.
type CreatedReport struct {
	ReportView
	Receipt string `json:"receipt"`
}

type CreateReportInput struct {
	Title    string
	Category string
	Body     string
}

// ReportPatch holds the fields to change; nil means keep.
type ReportPatch struct {
	Title        *string
	Body         *string
	Status       *string
	RiskScore    *int
	AssigneeName *string
}

type ReportFilter struct {
	Status   string
	Category string
}

type ReceiptStatus struct {
	ReportID  string    `json:"reportId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ReportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	key         []byte
	receipts    *auth.ReceiptIssuer
	notifier    ReportNotifier
	audit       *AuditService
	logger      logging.Logger
}

// NewReportService seals report bodies with a key derived from reportKey.
func NewReportService(db *sql.DB, m repomanager.RepositoryManager, reportKey string, receipts *auth.ReceiptIssuer,
	notifier ReportNotifier, audit *AuditService, logger logging.Logger) *ReportService {
	return &ReportService{
		db:          db,
		repomanager: m,
		key:         cryptox.KeyFromSecret(reportKey),
		receipts:    receipts,
		notifier:    notifier,
		audit:       audit,
		logger:      logger.With("module", "reports"),
	}
}

func (s *ReportService) Create(ctx context.Context, tenantID string, in CreateReportInput) (*CreatedReport, error) {
	if strings.TrimSpace(in.Title) == "" || runeLen(in.Title) < minReportTitle {
		return nil, validationf("title must be at least %d characters", minReportTitle)
	}
	if strings.TrimSpace(in.Body) == "" || runeLen(in.Body) < minReportBody {
		return nil, validationf("body must be at least %d characters", minReportBody)
	}
	if in.Category != "" && !models.IsReportCategory(in.Category) {
		return nil, validationf("unknown category %q", in.Category)
	}

	sealed, nonce, err := cryptox.Encrypt([]byte(in.Body), s.key)
	if err != nil {
		return nil, fmt.Errorf("error sealing report body: %w", err)
	}

	rep := &models.Report{
		TenantID:      tenantID,
		Title:         in.Title,
		Category:      optional(in.Category),
		BodyEncrypted: sealed,
		BodyNonce:     nonce,
		Status:        models.StatusReceived,
	}

	rep, err = s.repomanager.Reports(s.db).Create(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("error creating report: %w", err)
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "report.create",
		Detail:   "category=" + in.Category,
		TargetID: rep.ID,
		ReportID: rep.ID,
	})

	if err := s.notifier.NotifyReport(ctx, "[Silent Voice] 新規通報: "+in.Title, in.Body); err != nil {
		s.logger.Warn(ctx, "report notification failed", "report_id", rep.ID, "error", err)
	}

	receipt, err := s.receipts.Issue(tenantID, rep.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing receipt: %w", err)
	}

	return &CreatedReport{ReportView: toView(rep, in.Body), Receipt: receipt}, nil
}

// List ignores an unknown status and the "all" category.
func (s *ReportService) List(ctx context.Context, tenantID string, f ReportFilter) ([]ReportView, error) {
	filter := reports.Filter{}
	if models.IsReportStatus(f.Status) {
		filter.Status = f.Status
	}
	if f.Category != "" && f.Category != "all" {
		filter.Category = f.Category
	}

	list, err := s.repomanager.Reports(s.db).List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}

	views := make([]ReportView, 0, len(list))
	for _, r := range list {
		views = append(views, s.openView(ctx, r))
	}
	return views, nil
}

func (s *ReportService) Get(ctx context.Context, tenantID, id string) (*ReportView, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	r, err := s.repomanager.Reports(s.db).Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	v := s.openView(ctx, r)
	return &v, nil
}

// Update applies patch. The risk score is clamped to 0..100 and a blank
// assignee clears the assignment.
func (s *ReportService) Update(ctx context.Context, tenantID, actorID, id string, patch ReportPatch) (*ReportView, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	if patch.Status != nil && !models.IsReportStatus(*patch.Status) {
		return nil, validationf("unknown status %q", *patch.Status)
	}

	var updated *models.Report
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Reports(tx)

		r, err := repo.Get(ctx, tenantID, id)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			r.Title = *patch.Title
		}
		if patch.Body != nil && *patch.Body != "" {
			sealed, nonce, err := cryptox.Encrypt([]byte(*patch.Body), s.key)
			if err != nil {
				return fmt.Errorf("error sealing report body: %w", err)
			}
			r.BodyEncrypted, r.BodyNonce = sealed, nonce
		}
		if patch.Status != nil {
			r.Status = *patch.Status
		}
		if patch.RiskScore != nil {
			r.RiskScore = min(max(*patch.RiskScore, 0), 100)
		}
		if patch.AssigneeName != nil {
			r.AssigneeName = optional(strings.TrimSpace(*patch.AssigneeName))
		}

		updated, err = repo.Update(ctx, r)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating report: %w", err)
	}

	assignee := ""
	if updated.AssigneeName != nil {
		assignee = *updated.AssigneeName
	}
	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "report.update",
		ActorID:  actorID,
		TargetID: id,
		ReportID: id,
		Detail:   fmt.Sprintf("status=%s risk=%d assignee=%s", updated.Status, updated.RiskScore, assignee),
	})

	v := s.openView(ctx, updated)
	return &v, nil
}

func (s *ReportService) Delete(ctx context.Context, tenantID, actorID, id string) error {
	if !isUUID(id) {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Reports(s.db).Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error deleting report: %w", err)
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{Action: "report.delete", ActorID: actorID, TargetID: id, ReportID: id})
	return nil
}

// ReceiptStatus lets an anonymous reporter follow a report. Invalid or
// foreign receipts are common.ErrInvalidToken.
func (s *ReportService) ReceiptStatus(ctx context.Context, tenantID, receipt string) (*ReceiptStatus, error) {
	claims, err := s.receipts.Parse(receipt)
	if err != nil {
		return nil, err
	}
	if claims.TenantID != tenantID {
		return nil, common.ErrInvalidToken
	}

	r, err := s.repomanager.Reports(s.db).Get(ctx, tenantID, claims.ReportID)
	if err != nil {
		return nil, err
	}
	return &ReceiptStatus{ReportID: r.ID, Status: r.Status, UpdatedAt: r.UpdatedAt}, nil
}

// openView decrypts the body. An unreadable body (rotated key) is shown
// empty rather than failing the whole listing.
func (s *ReportService) openView(ctx context.Context, r *models.Report) ReportView {
	body, err := cryptox.Decrypt(r.BodyEncrypted, r.BodyNonce, s.key)
	if err != nil {
		s.logger.Warn(ctx, "report body unreadable", "report_id", r.ID, "error", err)
	}
	return toView(r, string(body))
}

func toView(r *models.Report, body string) ReportView {
	return ReportView{
		ReportID:     r.ID,
		Title:        r.Title,
		Category:     r.Category,
		Body:         body,
		Status:       r.Status,
		RiskScore:    r.RiskScore,
		AssigneeName: r.AssigneeName,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
