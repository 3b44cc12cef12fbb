// Package services contains the server-side business logic. Every operation
// that touches tenant data takes the tenant id explicitly.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/repomanager"
)

const (
	DefaultAuditLimit = 200
	MaxAuditLimit     = 500
)

// AuditEntry is what callers record. Empty optional fields are stored as NULL.
type AuditEntry struct {
	Action   string
	Detail   string
	TargetID string
	ActorID  string
	ReportID string
}

type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAuditService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AuditService {
	return &AuditService{db: db, repomanager: m, logger: logger.With("module", "audit")}
}

func (s *AuditService) Record(ctx context.Context, tenantID string, e AuditEntry) (*models.AuditLog, error) {
	if strings.TrimSpace(e.Action) == "" {
		return nil, fmt.Errorf("%w: action is required", common.ErrorValidation)
	}

	l := &models.AuditLog{
		TenantID: tenantID,
		Action:   e.Action,
		Detail:   optional(e.Detail),
		TargetID: optional(e.TargetID),
		ActorID:  optional(e.ActorID),
		ReportID: optional(e.ReportID),
	}

	l, err := s.repomanager.AuditLogs(s.db).Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("error recording audit log: %w", err)
	}
	return l, nil
}

// RecordQuietly records e and only logs a failure. Used where the audit
// trail is secondary to the operation that already happened.
func (s *AuditService) RecordQuietly(ctx context.Context, tenantID string, e AuditEntry) {
	if _, err := s.Record(ctx, tenantID, e); err != nil {
		s.logger.Error(ctx, "audit record failed", "action", e.Action, "error", err)
	}
}

// List returns the newest entries first. limit outside 1..MaxAuditLimit is
// clamped.
func (s *AuditService) List(ctx context.Context, tenantID string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	limit = min(limit, MaxAuditLimit)

	logs, err := s.repomanager.AuditLogs(s.db).List(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing audit logs: %w", err)
	}
	return logs, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
