package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/invoices"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/repomanager"
)

const (
	maxInvoiceAmount   = 1_000_000_000
	defaultInvoiceList = 100
	maxInvoiceList     = 200
	maxInvoiceExport   = 500

	dateLayout = "2006-01-02"
)

type InvoiceView struct {
	InvoiceID    string  `json:"invoiceId"`
	CustomerName string  `json:"customerName"`
	PeriodFrom   string  `json:"periodFrom"`
	PeriodTo     string  `json:"periodTo"`
	AmountJPY    int64   `json:"amountJpy"`
	Memo         *string `json:"memo"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

type CreateInvoiceInput struct {
	CustomerName string
	PeriodFrom   string
	PeriodTo     string
	AmountJPY    int64
	Memo         *string
	Status       string
}

// InvoicePatch holds the fields to change; nil means keep.
type InvoicePatch struct {
	CustomerName *string
	PeriodFrom   *string
	PeriodTo     *string
	AmountJPY    *int64
	Memo         *string
	Status       *string
}

type InvoiceFilter struct {
	Status string
	Query  string
	Limit  int
}

type BillingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	audit       *AuditService
	logger      logging.Logger
}

func NewBillingService(db *sql.DB, m repomanager.RepositoryManager, audit *AuditService, logger logging.Logger) *BillingService {
	return &BillingService{db: db, repomanager: m, audit: audit, logger: logger.With("module", "billing")}
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(field, s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, validationf("%s must be an ISO date", field)
}

func validateAmount(a int64) error {
	if a < 0 || a > maxInvoiceAmount {
		return validationf("amountJpy must be between 0 and %d", maxInvoiceAmount)
	}
	return nil
}

func validateInvoiceStatus(s string) error {
	if !models.IsInvoiceStatus(s) {
		return validationf("unknown invoice status %q", s)
	}
	return nil
}

func (s *BillingService) Create(ctx context.Context, tenantID, actorID string, in CreateInvoiceInput) (*InvoiceView, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, validationf("customerName is required")
	}
	from, err := parseDate("periodFrom", in.PeriodFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("periodTo", in.PeriodTo)
	if err != nil {
		return nil, err
	}
	if err := validateAmount(in.AmountJPY); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.InvoiceDraft
	}
	if err := validateInvoiceStatus(status); err != nil {
		return nil, err
	}

	inv, err := s.repomanager.Invoices(s.db).Create(ctx, &models.Invoice{
		TenantID:     tenantID,
		CustomerName: in.CustomerName,
		PeriodFrom:   from,
		PeriodTo:     to,
		AmountJPY:    in.AmountJPY,
		Memo:         in.Memo,
		Status:       status,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating invoice: %w", err)
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "billing.create",
		ActorID:  actorID,
		TargetID: inv.ID,
		Detail:   fmt.Sprintf("status=%s amount=%d", inv.Status, inv.AmountJPY),
	})

	v := toInvoiceView(inv)
	return &v, nil
}

func (s *BillingService) List(ctx context.Context, tenantID string, f InvoiceFilter) ([]InvoiceView, error) {
	if f.Limit == 0 {
		f.Limit = defaultInvoiceList
	}
	if f.Limit < 1 || f.Limit > maxInvoiceList {
		return nil, validationf("limit must be between 1 and %d", maxInvoiceList)
	}
	return s.list(ctx, tenantID, f)
}

// Export returns up to 500 invoices for the spreadsheet downloads.
func (s *BillingService) Export(ctx context.Context, tenantID string, f InvoiceFilter) ([]InvoiceView, error) {
	f.Limit = maxInvoiceExport
	return s.list(ctx, tenantID, f)
}

func (s *BillingService) list(ctx context.Context, tenantID string, f InvoiceFilter) ([]InvoiceView, error) {
	if f.Status != "" {
		if err := validateInvoiceStatus(f.Status); err != nil {
			return nil, err
		}
	}

	list, err := s.repomanager.Invoices(s.db).List(ctx, tenantID, invoices.Filter{
		Status: f.Status,
		Query:  strings.TrimSpace(f.Query),
		Limit:  f.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}

	views := make([]InvoiceView, 0, len(list))
	for _, inv := range list {
		views = append(views, toInvoiceView(inv))
	}
	return views, nil
}

func (s *BillingService) Update(ctx context.Context, tenantID, actorID, id string, p InvoicePatch) (*InvoiceView, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}

	var updated *models.Invoice
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Invoices(tx)

		inv, err := repo.Get(ctx, tenantID, id)
		if err != nil {
			return err
		}

		if p.CustomerName != nil {
			if strings.TrimSpace(*p.CustomerName) == "" {
				return validationf("customerName must not be empty")
			}
			inv.CustomerName = *p.CustomerName
		}
		if p.PeriodFrom != nil {
			if inv.PeriodFrom, err = parseDate("periodFrom", *p.PeriodFrom); err != nil {
				return err
			}
		}
		if p.PeriodTo != nil {
			if inv.PeriodTo, err = parseDate("periodTo", *p.PeriodTo); err != nil {
				return err
			}
		}
		if p.AmountJPY != nil {
			if err := validateAmount(*p.AmountJPY); err != nil {
				return err
			}
			inv.AmountJPY = *p.AmountJPY
		}
		if p.Memo != nil {
			inv.Memo = p.Memo
		}
		if p.Status != nil {
			if err := validateInvoiceStatus(*p.Status); err != nil {
				return err
			}
			inv.Status = *p.Status
		}

		updated, err = repo.Update(ctx, inv)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating invoice: %w", err)
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "billing.update",
		ActorID:  actorID,
		TargetID: id,
		Detail:   fmt.Sprintf("status=%s amount=%d", updated.Status, updated.AmountJPY),
	})

	v := toInvoiceView(updated)
	return &v, nil
}

// RecordExport audits a finished CSV or XLSX download.
func (s *BillingService) RecordExport(ctx context.Context, tenantID, actorID, format string, count int) {
	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:  "billing." + format,
		ActorID: actorID,
		Detail:  fmt.Sprintf("count=%d", count),
	})
}

func toInvoiceView(inv *models.Invoice) InvoiceView {
	return InvoiceView{
		InvoiceID:    inv.ID,
		CustomerName: inv.CustomerName,
		PeriodFrom:   inv.PeriodFrom.UTC().Format(dateLayout),
		PeriodTo:     inv.PeriodTo.UTC().Format(dateLayout),
		AmountJPY:    inv.AmountJPY,
		Memo:         inv.Memo,
		Status:       inv.Status,
		CreatedAt:    inv.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    inv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
