package tenants

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestEnsure(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+tenants\s*\(code,\s*name\).*ON\s+CONFLICT\s+\(code\)\s+DO\s+UPDATE.*RETURNING\s+id,\s*code,\s*name,\s*created_at`).
		WithArgs("default", "Default Tenant").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "created_at"}).AddRow("t-1", "default", "Default Tenant", now))

	got, err := repo.Ensure(context.Background(), "default", "Default Tenant")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsure_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+tenants`).WillReturnError(errors.New("db down"))

	_, err := repo.Ensure(context.Background(), "x", "y")
	assert.ErrorContains(t, err, "db error: db down")
}

func TestGetByCode(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*code,\s*name,\s*created_at\s+FROM\s+tenants\s+WHERE\s+code\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "created_at"}).AddRow("t-2", "acme", "Acme", time.Now()))
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByCode(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = repo.GetByCode(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
