package reports

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE reports (
  id TEXT PRIMARY KEY,
  server_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT '受付',
  assignee TEXT NOT NULL DEFAULT '',
  risk_score INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  pending INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0
);`)
	require.NoError(t, err)
	return db
}

var base = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

func report(id, status string, created time.Time) *models.Report {
	return &models.Report{
		ID: id, Title: "title " + id, Category: "その他", Body: "body of " + id,
		Status: status, CreatedAt: created, UpdatedAt: created, Pending: true,
	}
}

func TestUpsertAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := report("r1", "受付", base.Add(123456789*time.Nanosecond))
	in.RiskScore = 40
	in.Assignee = "法務部"
	require.NoError(t, r.Upsert(ctx, in))

	got, err := r.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	in.Status = "調査"
	in.Pending = false
	require.NoError(t, r.Upsert(ctx, in))

	got, err = r.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "調査", got.Status)
	assert.False(t, got.Pending)
}

func TestGet_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	_, err := r.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_NewestFirstAndStatusFilter(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, report("old", "受付", base)))
	require.NoError(t, r.Upsert(ctx, report("mid", "完了", base.Add(time.Hour))))
	require.NoError(t, r.Upsert(ctx, report("new", "受付", base.Add(2*time.Hour))))

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	open, err := r.List(ctx, "受付")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "new", open[0].ID)
}

func TestSoftDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	rep := report("r1", "受付", base)
	rep.Pending = false
	require.NoError(t, r.Upsert(ctx, rep))
	require.NoError(t, r.SoftDelete(ctx, "r1"))

	_, err := r.Get(ctx, "r1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)

	pending, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Deleted)

	assert.ErrorIs(t, r.SoftDelete(ctx, "r1"), common.ErrorNotFound)
}

func TestSyncBookkeeping(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, report("local-1", "受付", base)))
	require.NoError(t, r.ReplaceID(ctx, "local-1", "srv-1"))
	require.NoError(t, r.MarkSynced(ctx, "srv-1", "srv-1"))

	got, err := r.Get(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ServerID)
	assert.False(t, got.Pending)

	pending, err := r.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, r.ReplaceID(ctx, "local-1", "x"), common.ErrorNotFound)
	assert.ErrorIs(t, r.MarkSynced(ctx, "missing", "x"), common.ErrorNotFound)

	require.NoError(t, r.Purge(ctx, "srv-1"))
	_, err = r.Get(ctx, "srv-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
