// Package otpchallenges persists issued one-time login codes.
package otpchallenges

import (
	"context"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.OtpChallenge) (*models.OtpChallenge, error)
	// FindActive returns the newest challenge of the user that is neither
	// consumed nor expired at now.
	FindActive(ctx context.Context, userID string, now time.Time) (*models.OtpChallenge, error)
	// Consume marks the challenge used. It fails with common.ErrorUnauthorized
	// when the challenge was consumed already.
	Consume(ctx context.Context, id string, now time.Time) error
	// ReserveAttempt counts one verification try against the challenge and
	// returns the new total. It fails with common.ErrOtpLocked once max tries
	// were counted or the challenge was consumed.
	ReserveAttempt(ctx context.Context, id string, max int) (int, error)
}
