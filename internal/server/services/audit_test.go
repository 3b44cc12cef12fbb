package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Record(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := newTestAudit(db, rm)
	ctx := context.Background()

	l, err := s.Record(ctx, testTenant, AuditEntry{Action: "custom.event", Detail: "x=1"})
	require.NoError(t, err)
	assert.Equal(t, testTenant, l.TenantID)
	assert.Equal(t, "x=1", *l.Detail)
	assert.Nil(t, l.ActorID)
	assert.Nil(t, l.TargetID)
	assert.Nil(t, l.ReportID)

	_, err = s.Record(ctx, testTenant, AuditEntry{Action: "  "})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestAuditService_RecordQuietly(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.audit.createErr = errBoom{}

	assert.NotPanics(t, func() {
		newTestAudit(db, rm).RecordQuietly(context.Background(), testTenant, AuditEntry{Action: "a"})
	})
}

func TestAuditService_ListLimits(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := newTestAudit(db, rm)
	ctx := context.Background()

	for _, a := range []string{"one", "two", "three"} {
		_, err := s.Record(ctx, testTenant, AuditEntry{Action: a})
		require.NoError(t, err)
	}

	logs, err := s.List(ctx, testTenant, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "three", logs[0].Action)
	assert.Equal(t, "two", logs[1].Action)

	_, err = s.List(ctx, testTenant, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAuditLimit, rm.audit.lastLimit)

	_, err = s.List(ctx, testTenant, 10_000)
	require.NoError(t, err)
	assert.Equal(t, MaxAuditLimit, rm.audit.lastLimit)
}
