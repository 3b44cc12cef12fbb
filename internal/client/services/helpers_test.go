package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/client/client"
	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 10, 9, 8, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRecords(t *testing.T, db *sql.DB) *RecordsService {
	s := NewRecordsService(db)
	s.clock = timex.Fixed(testNow)
	return s
}

// hasLog ignores order; entries written at the same instant tie.
func hasLog(entries []*models.LogEntry, action, detail string) bool {
	for _, e := range entries {
		if e.Action == action && e.Detail == detail {
			return true
		}
	}
	return false
}

type fakeAPI struct {
	token    string
	offline  error
	remote   map[string]client.RemoteReport
	nextID   int
	created  []client.ReportInput
	updated  map[string]client.ReportUpdate
	deleted  []string
	presign  *client.PresignResult
	presigns []client.PresignRequest
	user     *client.SessionUser
	loggedIn bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{remote: map[string]client.RemoteReport{}, updated: map[string]client.ReportUpdate{}}
}

func (f *fakeAPI) Ping(context.Context) error { return f.offline }

func (f *fakeAPI) SendOtp(context.Context, string) (time.Time, error) {
	return testNow.Add(10 * time.Minute), f.offline
}

func (f *fakeAPI) VerifyOtp(_ context.Context, email, _ string) (*client.SessionUser, error) {
	if f.offline != nil {
		return nil, f.offline
	}
	f.token = "u1.1760000000.sig"
	f.user = &client.SessionUser{UserID: "u1", Role: "admin", Email: email}
	return f.user, nil
}

func (f *fakeAPI) Session(context.Context) (*client.SessionUser, error) {
	if f.offline != nil {
		return nil, f.offline
	}
	return f.user, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.token = ""
	return f.offline
}

func (f *fakeAPI) Token() string      { return f.token }
func (f *fakeAPI) SetToken(t string) { f.token = t }

func (f *fakeAPI) CreateReport(_ context.Context, in client.ReportInput) (*client.RemoteReport, error) {
	if f.offline != nil {
		return nil, f.offline
	}
	f.nextID++
	f.created = append(f.created, in)
	var cat *string
	if in.Category != "" {
		cat = &in.Category
	}
	rr := client.RemoteReport{
		ReportID:  "srv-" + string(rune('0'+f.nextID)),
		Title:     in.Title,
		Category:  cat,
		Body:      in.Body,
		Status:    "受付",
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	f.remote[rr.ReportID] = rr
	return &rr, nil
}

func (f *fakeAPI) ListReports(context.Context) ([]client.RemoteReport, error) {
	if f.offline != nil {
		return nil, f.offline
	}
	out := make([]client.RemoteReport, 0, len(f.remote))
	for _, r := range f.remote {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAPI) UpdateReport(_ context.Context, id string, in client.ReportUpdate) (*client.RemoteReport, error) {
	rr := f.remote[id]
	f.updated[id] = in
	if in.Status != nil {
		rr.Status = *in.Status
	}
	if in.RiskScore != nil {
		rr.RiskScore = *in.RiskScore
	}
	if in.AssigneeName != nil {
		rr.AssigneeName = in.AssigneeName
	}
	f.remote[id] = rr
	return &rr, nil
}

func (f *fakeAPI) DeleteReport(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.remote, id)
	return nil
}

func (f *fakeAPI) Presign(_ context.Context, in client.PresignRequest) (*client.PresignResult, error) {
	f.presigns = append(f.presigns, in)
	return f.presign, nil
}
