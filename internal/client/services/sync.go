package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/silentvoice/internal/client/client"
	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/silentvoice/internal/client/repositories/reports"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/netx"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

const dryRunMode = "dryrun"

// uploadFn is a seam for the presigned upload.
var uploadFn = netx.UploadToS3PresignedURL

type SyncResult struct {
	Created int
	Updated int
	Deleted int
	Pulled  int
}

// SyncService reconciles the local store with the server.
type SyncService struct {
	db     *sql.DB
	api    client.Client
	http   *http.Client
	clock  timex.Clock
	logger logging.Logger
}

func NewSyncService(db *sql.DB, api client.Client, logger logging.Logger) *SyncService {
	return &SyncService{db: db, api: api, logger: logger.With("module", "sync")}
}

// Sync pushes pending local changes and then pulls the server's reports.
// It fails without touching the store when the server is unreachable or no
// session is held.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if s.api.Token() == "" {
		return nil, client.ErrNotLoggedIn
	}
	if err := s.api.Ping(ctx); err != nil {
		return nil, err
	}

	res := &SyncResult{}
	if err := s.push(ctx, res); err != nil {
		return res, fmt.Errorf("push: %w", err)
	}
	if err := s.pull(ctx, res); err != nil {
		return res, fmt.Errorf("pull: %w", err)
	}

	detail := fmt.Sprintf("created=%d updated=%d deleted=%d pulled=%d", res.Created, res.Updated, res.Deleted, res.Pulled)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.NewSQLiteRepository(tx).MarkSynced(ctx, s.clock.Now()); err != nil {
			return err
		}
		return addLog(ctx, tx, s.clock, "sync", "", detail)
	})
	if err != nil {
		s.logger.Warn(ctx, "sync bookkeeping failed", "error", err)
	}
	return res, nil
}

func (s *SyncService) push(ctx context.Context, res *SyncResult) error {
	repo := reports.NewSQLiteRepository(s.db)

	pending, err := repo.ListPending(ctx)
	if err != nil {
		return err
	}

	for _, r := range pending {
		switch {
		case r.Deleted:
			if r.ServerID != "" {
				err := s.api.DeleteReport(ctx, r.ServerID)
				if err != nil && !errors.Is(err, common.ErrorNotFound) {
					return fmt.Errorf("delete %s: %w", r.ID, err)
				}
			}
			if err := repo.Purge(ctx, r.ID); err != nil {
				return err
			}
			res.Deleted++

		case r.ServerID == "":
			if err := s.create(ctx, r); err != nil {
				return fmt.Errorf("create %s: %w", r.ID, err)
			}
			res.Created++

		default:
			if _, err := s.api.UpdateReport(ctx, r.ServerID, fullUpdate(r)); err != nil {
				return fmt.Errorf("update %s: %w", r.ID, err)
			}
			if err := repo.MarkSynced(ctx, r.ID, r.ServerID); err != nil {
				return err
			}
			res.Updated++
		}
	}
	return nil
}

// create files a local report on the server, carries over case fields the
// create call does not accept, then renames the local row to the server id.
func (s *SyncService) create(ctx context.Context, r *models.Report) error {
	remote, err := s.api.CreateReport(ctx, client.ReportInput{Title: r.Title, Category: r.Category, Body: r.Body})
	if err != nil {
		return err
	}

	if r.Status != remote.Status || r.RiskScore != remote.RiskScore || r.Assignee != "" {
		if _, err := s.api.UpdateReport(ctx, remote.ReportID, fullUpdate(r)); err != nil {
			return err
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := reports.NewSQLiteRepository(tx)
		if remote.ReportID != r.ID {
			if err := repo.ReplaceID(ctx, r.ID, remote.ReportID); err != nil {
				return err
			}
		}
		return repo.MarkSynced(ctx, remote.ReportID, remote.ReportID)
	})
}

func fullUpdate(r *models.Report) client.ReportUpdate {
	return client.ReportUpdate{
		Title:        &r.Title,
		Body:         &r.Body,
		Status:       &r.Status,
		RiskScore:    &r.RiskScore,
		AssigneeName: &r.Assignee,
	}
}

// pull stores the server's view of every report; the server wins.
func (s *SyncService) pull(ctx context.Context, res *SyncResult) error {
	remote, err := s.api.ListReports(ctx)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := reports.NewSQLiteRepository(tx)
		for _, rr := range remote {
			if err := repo.Upsert(ctx, fromRemote(rr)); err != nil {
				return err
			}
		}
		res.Pulled = len(remote)
		return nil
	})
}

func fromRemote(rr client.RemoteReport) *models.Report {
	r := &models.Report{
		ID:        rr.ReportID,
		ServerID:  rr.ReportID,
		Title:     rr.Title,
		Body:      rr.Body,
		Status:    rr.Status,
		RiskScore: rr.RiskScore,
		CreatedAt: rr.CreatedAt,
		UpdatedAt: rr.UpdatedAt,
	}
	if rr.Category != nil {
		r.Category = *rr.Category
	}
	if rr.AssigneeName != nil {
		r.Assignee = *rr.AssigneeName
	}
	return r
}

// Attach presigns an upload for the file at path and sends it. In dry-run
// mode the server hands out a placeholder URL, so nothing is uploaded.
func (s *SyncService) Attach(ctx context.Context, reportID, path string) (*client.PresignResult, error) {
	r, err := reports.NewSQLiteRepository(s.db).Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	presigned, err := s.api.Presign(ctx, client.PresignRequest{
		Filename: name,
		MimeType: mime.TypeByExtension(filepath.Ext(name)),
		ReportID: r.ServerID,
	})
	if err != nil {
		return nil, err
	}

	if presigned.Mode != dryRunMode {
		target := netx.PresignedUpload{URL: presigned.UploadURL, Method: presigned.Method, Headers: presigned.Headers}
		if err := uploadFn(ctx, s.http, target, data); err != nil {
			return nil, fmt.Errorf("error uploading %s: %w", name, err)
		}
	}

	detail := fmt.Sprintf("key=%s mode=%s", presigned.ObjectKey, presigned.Mode)
	if err := addLog(ctx, s.db, s.clock, "file.attach", r.ID, detail); err != nil {
		s.logger.Warn(ctx, "attach not logged", "error", err)
	}
	return presigned, nil
}
