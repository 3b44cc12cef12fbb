package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/client/repositories/logs"
	"github.com/dmitrijs2005/silentvoice/internal/client/repositories/reports"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/cryptox"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/filex"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

// bundlePayload is the plaintext sealed inside an export bundle.
type bundlePayload struct {
	ExportedAt time.Time          `json:"exportedAt"`
	Reports    []*models.Report   `json:"reports"`
	Logs       []*models.LogEntry `json:"logs"`
}

// BundleService moves the local store in and out of passphrase-protected
// bundles and writes the audit CSV.
type BundleService struct {
	db        *sql.DB
	exportDir string
	clock     timex.Clock
}

func NewBundleService(db *sql.DB, exportDir string) *BundleService {
	return &BundleService{db: db, exportDir: exportDir}
}

// Export seals every live report and all log entries. It returns the written
// file and the number of reports in it.
func (s *BundleService) Export(ctx context.Context, passphrase string) (string, int, error) {
	if passphrase == "" {
		return "", 0, validationf("passphrase is required")
	}

	list, err := reports.NewSQLiteRepository(s.db).List(ctx, "")
	if err != nil {
		return "", 0, fmt.Errorf("error reading reports: %w", err)
	}
	entries, err := logs.NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("error reading logs: %w", err)
	}

	now := s.clock.Now().UTC()
	payload, err := json.Marshal(bundlePayload{
		ExportedAt: now,
		Reports:    nonNil(list),
		Logs:       nonNil(entries),
	})
	if err != nil {
		return "", 0, err
	}

	bundle, err := cryptox.EncryptString(string(payload), passphrase)
	if err != nil {
		return "", 0, fmt.Errorf("error encrypting bundle: %w", err)
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return "", 0, err
	}

	dir, err := filex.EnsureSubdDir(s.exportDir)
	if err != nil {
		return "", 0, err
	}
	path, err := filex.WriteFileAtomic(dir, fmt.Sprintf("sv_bundle_%d.json", now.UnixMilli()), data)
	if err != nil {
		return "", 0, err
	}

	if err := addLog(ctx, s.db, s.clock, "export.encrypted", "", fmt.Sprintf("count=%d", len(list))); err != nil {
		return path, len(list), fmt.Errorf("bundle written but not logged: %w", err)
	}
	return path, len(list), nil
}

// Import decrypts the bundle at path and upserts its content in a single
// transaction. On any error the store is left as it was. Imported reports
// that never reached the server are queued for the next sync.
func (s *BundleService) Import(ctx context.Context, path, passphrase string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("error reading bundle: %w", err)
	}

	bundle, err := cryptox.ParseBundle(data)
	if err != nil {
		return 0, err
	}
	plaintext, err := cryptox.DecryptString(bundle, passphrase)
	if err != nil {
		return 0, err
	}

	var payload bundlePayload
	if err := json.Unmarshal([]byte(plaintext), &payload); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrBundleFormat, err)
	}
	for _, r := range payload.Reports {
		if r == nil || r.ID == "" {
			return 0, fmt.Errorf("%w: report without id", common.ErrBundleFormat)
		}
	}
	for _, l := range payload.Logs {
		if l == nil || l.ID == "" {
			return 0, fmt.Errorf("%w: log entry without id", common.ErrBundleFormat)
		}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rr := reports.NewSQLiteRepository(tx)
		for _, r := range payload.Reports {
			r.Deleted = false
			r.Pending = r.ServerID == ""
			if err := rr.Upsert(ctx, r); err != nil {
				return err
			}
		}
		lr := logs.NewSQLiteRepository(tx)
		for _, l := range payload.Logs {
			if err := lr.Upsert(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error importing bundle: %w", err)
	}

	n := len(payload.Reports)
	if err := addLog(ctx, s.db, s.clock, "import.encrypted", "", fmt.Sprintf("reports=%d", n)); err != nil {
		return n, fmt.Errorf("bundle imported but not logged: %w", err)
	}
	return n, nil
}

var auditCSVHeader = []string{"at", "action", "targetId", "detail"}

// AuditCSV writes the local log, newest first, as CSV.
func (s *BundleService) AuditCSV(ctx context.Context) (string, error) {
	entries, err := logs.NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return "", fmt.Errorf("error reading logs: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(auditCSVHeader); err != nil {
		return "", err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.At.UTC().Format(time.RFC3339Nano), e.Action, e.TargetID, e.Detail}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	dir, err := filex.EnsureSubdDir(s.exportDir)
	if err != nil {
		return "", err
	}
	return filex.WriteFileAtomic(dir, fmt.Sprintf("audit_%d.csv", s.clock.Now().UnixMilli()), buf.Bytes())
}

// IsWrongPassphrase reports whether err came from a bundle that could not be
// opened, which is all the caller may tell the user.
func IsWrongPassphrase(err error) bool {
	return errors.Is(err, common.ErrDecryption)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
