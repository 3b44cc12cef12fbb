package models

import (
	"slices"
	"time"
)

const (
	StatusReceived      = "受付"
	StatusInvestigating = "調査"
	StatusInProgress    = "対応中"
	StatusClosed        = "完了"
)

var ReportStatuses = []string{StatusReceived, StatusInvestigating, StatusInProgress, StatusClosed}

var ReportCategories = []string{"コンプライアンス違反", "ハラスメント", "労働環境", "その他"}

func IsReportStatus(s string) bool   { return slices.Contains(ReportStatuses, s) }
func IsReportCategory(c string) bool { return slices.Contains(ReportCategories, c) }

// Report is a whistleblower report. The body is stored sealed with AES-GCM;
// BodyEncrypted and BodyNonce are what the database holds.
type Report struct {
	ID            string
	TenantID      string
	Title         string
	Category      *string
	BodyEncrypted []byte
	BodyNonce     []byte
	Status        string
	RiskScore     int
	AssigneeName  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
