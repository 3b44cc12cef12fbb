package otpchallenges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.OtpChallenge) (*models.OtpChallenge, error) {
	query :=
		`INSERT INTO otp_challenges (user_id, code_hash, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, c.UserID, c.CodeHash, c.CreatedAt, c.ExpiresAt).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, userID string, now time.Time) (*models.OtpChallenge, error) {
	query :=
		`SELECT id, user_id, code_hash, created_at, expires_at, consumed_at, attempts
		 FROM otp_challenges
		 WHERE user_id = $1 AND consumed_at IS NULL AND expires_at > $2
		 ORDER BY created_at DESC
		 LIMIT 1
		 `

	c := &models.OtpChallenge{}
	err := r.db.QueryRowContext(ctx, query, userID, now).
		Scan(&c.ID, &c.UserID, &c.CodeHash, &c.CreatedAt, &c.ExpiresAt, &c.ConsumedAt, &c.Attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, id string, now time.Time) error {
	query :=
		`UPDATE otp_challenges SET consumed_at = $2
		 WHERE id = $1 AND consumed_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOne(res, common.ErrorUnauthorized)
}

func (r *PostgresRepository) ReserveAttempt(ctx context.Context, id string, max int) (int, error) {
	query :=
		`UPDATE otp_challenges SET attempts = attempts + 1
		 WHERE id = $1 AND consumed_at IS NULL AND attempts < $2
		 RETURNING attempts
		 `

	var attempts int
	if err := r.db.QueryRowContext(ctx, query, id, max).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrOtpLocked
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}
