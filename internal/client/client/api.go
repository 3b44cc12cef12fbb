package client

import (
	"context"
	"time"
)

// Client is the subset of the REST API the console uses.
type Client interface {
	Ping(ctx context.Context) error
	SendOtp(ctx context.Context, email string) (time.Time, error)
	VerifyOtp(ctx context.Context, email, code string) (*SessionUser, error)
	Session(ctx context.Context) (*SessionUser, error)
	Logout(ctx context.Context) error

	Token() string
	SetToken(token string)

	CreateReport(ctx context.Context, in ReportInput) (*RemoteReport, error)
	ListReports(ctx context.Context) ([]RemoteReport, error)
	UpdateReport(ctx context.Context, id string, in ReportUpdate) (*RemoteReport, error)
	DeleteReport(ctx context.Context, id string) error

	Presign(ctx context.Context, in PresignRequest) (*PresignResult, error)
}

type SessionUser struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

type RemoteReport struct {
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

type ReportInput struct {
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Body     string `json:"body"`
}

type ReportUpdate struct {
	Title        *string `json:"title,omitempty"`
	Body         *string `json:"body,omitempty"`
	Status       *string `json:"status,omitempty"`
	RiskScore    *int    `json:"riskScore,omitempty"`
	AssigneeName *string `json:"assigneeName,omitempty"`
}

type PresignRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType,omitempty"`
	ReportID string `json:"reportId,omitempty"`
}

type PresignResult struct {
	UploadURL  string            `json:"uploadUrl"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	ObjectKey  string            `json:"objectKey"`
	StorageURL string            `json:"storageUrl"`
	Mode       string            `json:"mode"`
}
