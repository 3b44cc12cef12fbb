// Package services contains the console's application services. They keep
// the local SQLite store authoritative and talk to the API only on demand.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/client/repositories/logs"
	"github.com/dmitrijs2005/silentvoice/internal/client/repositories/reports"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
	"github.com/google/uuid"
)

var (
	Categories = []string{"コンプライアンス違反", "ハラスメント", "労働環境", "その他"}
	Statuses   = []string{"受付", "調査", "対応中", "完了"}
)

const (
	minTitleRunes = 4
	minBodyRunes  = 10
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// RecordsService manages local cases and writes a log entry for every change.
type RecordsService struct {
	db    *sql.DB
	clock timex.Clock
}

func NewRecordsService(db *sql.DB) *RecordsService {
	return &RecordsService{db: db}
}

func (s *RecordsService) reports(db dbx.DBTX) reports.Repository { return reports.NewSQLiteRepository(db) }

func addLog(ctx context.Context, db dbx.DBTX, clock timex.Clock, action, targetID, detail string) error {
	return logs.NewSQLiteRepository(db).Add(ctx, &models.LogEntry{
		ID:       uuid.NewString(),
		Action:   action,
		TargetID: targetID,
		Detail:   detail,
		At:       clock.Now().UTC(),
	})
}

func (s *RecordsService) Create(ctx context.Context, title, category, body string) (*models.Report, error) {
	title, body, category = strings.TrimSpace(title), strings.TrimSpace(body), strings.TrimSpace(category)

	if utf8.RuneCountInString(title) < minTitleRunes {
		return nil, validationf("title must be at least %d characters", minTitleRunes)
	}
	if utf8.RuneCountInString(body) < minBodyRunes {
		return nil, validationf("body must be at least %d characters", minBodyRunes)
	}
	if category != "" && !slices.Contains(Categories, category) {
		return nil, validationf("unknown category %q", category)
	}

	now := s.clock.Now().UTC()
	r := &models.Report{
		ID:        uuid.NewString(),
		Title:     title,
		Category:  category,
		Body:      body,
		Status:    models.DefaultStatus,
		CreatedAt: now,
		UpdatedAt: now,
		Pending:   true,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.reports(tx).Upsert(ctx, r); err != nil {
			return err
		}
		return addLog(ctx, tx, s.clock, "report.create", r.ID, "category="+category)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating report: %w", err)
	}
	return r, nil
}

func (s *RecordsService) Get(ctx context.Context, id string) (*models.Report, error) {
	return s.reports(s.db).Get(ctx, id)
}

// List returns live reports newest first. An unknown status is ignored.
func (s *RecordsService) List(ctx context.Context, status string) ([]*models.Report, error) {
	if !slices.Contains(Statuses, status) {
		status = ""
	}
	return s.reports(s.db).List(ctx, status)
}

func (s *RecordsService) Update(ctx context.Context, id string, p models.ReportPatch) (*models.Report, error) {
	var updated *models.Report

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.reports(tx)
		r, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		if p.Title != nil {
			t := strings.TrimSpace(*p.Title)
			if utf8.RuneCountInString(t) < minTitleRunes {
				return validationf("title must be at least %d characters", minTitleRunes)
			}
			r.Title = t
		}
		if p.Body != nil && strings.TrimSpace(*p.Body) != "" {
			r.Body = strings.TrimSpace(*p.Body)
		}
		if p.Status != nil {
			if !slices.Contains(Statuses, *p.Status) {
				return validationf("unknown status %q", *p.Status)
			}
			r.Status = *p.Status
		}
		if p.Assignee != nil {
			r.Assignee = strings.TrimSpace(*p.Assignee)
		}
		if p.RiskScore != nil {
			if *p.RiskScore < 0 || *p.RiskScore > 100 {
				return validationf("risk score must be between 0 and 100")
			}
			r.RiskScore = *p.RiskScore
		}

		r.UpdatedAt = s.clock.Now().UTC()
		r.Pending = true
		if err := repo.Upsert(ctx, r); err != nil {
			return err
		}
		updated = r
		return addLog(ctx, tx, s.clock, "report.update", r.ID, fmt.Sprintf("status=%s assignee=%s", r.Status, r.Assignee))
	})
	if err != nil {
		return nil, fmt.Errorf("error updating report: %w", err)
	}
	return updated, nil
}

func (s *RecordsService) Delete(ctx context.Context, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.reports(tx).SoftDelete(ctx, id); err != nil {
			return err
		}
		return addLog(ctx, tx, s.clock, "report.delete", id, "")
	})
	if err != nil {
		return fmt.Errorf("error deleting report: %w", err)
	}
	return nil
}

// Logs returns the local audit trail newest first.
func (s *RecordsService) Logs(ctx context.Context) ([]*models.LogEntry, error) {
	return logs.NewSQLiteRepository(s.db).List(ctx)
}

// ClearLogs empties the local audit trail.
func (s *RecordsService) ClearLogs(ctx context.Context) error {
	return logs.NewSQLiteRepository(s.db).Clear(ctx)
}
