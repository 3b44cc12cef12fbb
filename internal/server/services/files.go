package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/awsx"
	"github.com/dmitrijs2005/silentvoice/internal/server/config"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	ModeDryRun = "dryrun"
	ModeLive   = "live"

	defaultMimeType = "application/octet-stream"
)

var (
	loadAWSConfig = awsx.Load

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type PresignInput struct {
	Filename string
	MimeType string
	ReportID string
}

type PresignResult struct {
	UploadURL  string            `json:"uploadUrl"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	ObjectKey  string            `json:"objectKey"`
	StorageURL string            `json:"storageUrl"`
	Mode       string            `json:"mode"`
}

type AttachmentView struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mimeType"`
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileService hands out presigned S3 URLs. Without a bucket and region it
// runs in dry-run mode and returns placeholder URLs.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	audit       *AuditService
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, audit *AuditService, logger logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, config: cfg, audit: audit, logger: logger.With("module", "files")}
}

func (s *FileService) live() bool {
	return s.config.S3Bucket != "" && s.config.S3Region != ""
}

func newObjectKey(filename string) string {
	return uuid.NewString() + "/" + url.PathEscape(filename)
}

func (s *FileService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadAWSConfig(ctx, awsx.Options{
		Region:    s.config.S3Region,
		AccessKey: s.config.S3AccessKey,
		SecretKey: s.config.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// Presign returns where and how to upload filename and records the object
// key as an attachment.
func (s *FileService) Presign(ctx context.Context, tenantID string, in PresignInput) (*PresignResult, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, validationf("filename is required")
	}
	if in.ReportID != "" {
		if !isUUID(in.ReportID) {
			return nil, validationf("reportId must be a UUID")
		}
		if _, err := s.repomanager.Reports(s.db).Get(ctx, tenantID, in.ReportID); err != nil {
			return nil, err
		}
	}
	mime := in.MimeType
	if mime == "" {
		mime = defaultMimeType
	}

	key := newObjectKey(in.Filename)

	var res *PresignResult
	if !s.live() {
		res = &PresignResult{
			UploadURL:  strings.TrimRight(s.config.UploadPresignBase, "/") + "/" + key,
			Method:     "PUT",
			Headers:    map[string]string{"x-demo-presign": "true"},
			ObjectKey:  key,
			StorageURL: strings.TrimRight(s.config.StorageBaseURL, "/") + "/" + key,
			Mode:       ModeDryRun,
		}
	} else {
		pc, err := s.getPresignClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("error creating presign client: %w", err)
		}

		bucket := s.config.S3Bucket
		req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
			Bucket:      &bucket,
			Key:         &key,
			ContentType: aws.String(mime),
		}, s3.WithPresignExpires(s.config.PresignExpires))
		if err != nil {
			return nil, fmt.Errorf("error presigning upload: %w", err)
		}

		res = &PresignResult{
			UploadURL:  req.URL,
			Method:     "PUT",
			Headers:    map[string]string{"Content-Type": mime},
			ObjectKey:  key,
			StorageURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.config.S3Region, key),
			Mode:       ModeLive,
		}
	}

	_, err := s.repomanager.Files(s.db).Create(ctx, &models.Attachment{
		TenantID:   tenantID,
		ReportID:   optional(in.ReportID),
		ObjectKey:  key,
		Filename:   in.Filename,
		MimeType:   mime,
		StorageURL: res.StorageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("error recording attachment: %w", err)
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "file.presign",
		Detail:   "mode=" + res.Mode + " filename=" + in.Filename,
		TargetID: key,
		ReportID: in.ReportID,
	})

	return res, nil
}

// DownloadURL returns a presigned GET for key, or the storage URL in
// dry-run mode.
func (s *FileService) DownloadURL(ctx context.Context, key string) (string, error) {
	if !s.live() {
		return strings.TrimRight(s.config.StorageBaseURL, "/") + "/" + key, nil
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignExpires))
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return req.URL, nil
}

// Attachments lists the files recorded for a report with download URLs.
func (s *FileService) Attachments(ctx context.Context, tenantID, reportID string) ([]AttachmentView, error) {
	if !isUUID(reportID) {
		return nil, validationf("reportId must be a UUID")
	}

	list, err := s.repomanager.Files(s.db).ListByReport(ctx, tenantID, reportID)
	if err != nil {
		return nil, fmt.Errorf("error listing attachments: %w", err)
	}

	views := make([]AttachmentView, 0, len(list))
	for _, a := range list {
		u, err := s.DownloadURL(ctx, a.ObjectKey)
		if err != nil {
			return nil, err
		}
		views = append(views, AttachmentView{
			ID:          a.ID,
			Filename:    a.Filename,
			MimeType:    a.MimeType,
			ObjectKey:   a.ObjectKey,
			DownloadURL: u,
			CreatedAt:   a.CreatedAt,
		})
	}
	return views, nil
}
