package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/cryptox"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/auth"
	"github.com/dmitrijs2005/silentvoice/internal/server/config"
	"github.com/dmitrijs2005/silentvoice/internal/server/models"
	"github.com/dmitrijs2005/silentvoice/internal/server/ratelimit"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

// verifyOtpCode is replaced in tests to count comparisons.
var verifyOtpCode = cryptox.VerifyOtpCode

func isOtpCode(code string) bool {
	if len(code) != common.OtpCodeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// generateOtpCode returns a zero-padded 6-digit code. Replaced in tests.
var generateOtpCode = func() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// OtpSender delivers login codes.
type OtpSender interface {
	SendOtp(ctx context.Context, email, code string) error
}

// SessionUser is the public view of a logged-in user.
type SessionUser struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

type LoginResult struct {
	Token string
	User  SessionUser
}

// AuthLimiters bound OTP send and verify calls per email hash.
type AuthLimiters struct {
	Send   ratelimit.Limiter
	Verify ratelimit.Limiter
}

// AuthService implements passwordless login: an emailed one-time code is
// exchanged for a signed session token.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      *auth.SessionSigner
	sender      OtpSender
	audit       *AuditService
	limiters    AuthLimiters
	otpTTL      time.Duration
	maxAttempts int
	clock       timex.Clock
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, signer *auth.SessionSigner, sender OtpSender,
	audit *AuditService, limiters AuthLimiters, cfg *config.Config, logger logging.Logger) *AuthService {

	if limiters.Send == nil {
		limiters.Send = ratelimit.Noop{}
	}
	if limiters.Verify == nil {
		limiters.Verify = ratelimit.Noop{}
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		signer:      signer,
		sender:      sender,
		audit:       audit,
		limiters:    limiters,
		otpTTL:      cfg.OtpTTL,
		maxAttempts: cfg.MaxOtpAttempts,
		logger:      logger.With("module", "auth"),
	}
}

// SendOtp upserts the user, stores a hashed code and mails it. Mail failures
// are logged and do not fail the call. It returns the challenge expiry.
func (s *AuthService) SendOtp(ctx context.Context, tenantID, email string) (time.Time, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return time.Time{}, err
	}
	emailHash := hashEmail(email)

	if err := ratelimit.Check(ctx, s.limiters.Send, emailHash, s.logger); err != nil {
		return time.Time{}, err
	}

	code, err := generateOtpCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("error generating otp: %w", err)
	}
	codeHash, err := cryptox.HashOtpCode(code)
	if err != nil {
		return time.Time{}, fmt.Errorf("error hashing otp: %w", err)
	}

	now := s.clock.Now()
	challenge := &models.OtpChallenge{CodeHash: codeHash, CreatedAt: now, ExpiresAt: now.Add(s.otpTTL)}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Upsert(ctx, tenantID, email, emailHash)
		if err != nil {
			return fmt.Errorf("error upserting user: %w", err)
		}
		user = u
		challenge.UserID = u.ID

		if _, err := s.repomanager.OtpChallenges(tx).Create(ctx, challenge); err != nil {
			return fmt.Errorf("error creating otp challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	if err := s.sender.SendOtp(ctx, email, code); err != nil {
		s.logger.Warn(ctx, "otp delivery failed", "user_id", user.ID, "error", err)
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "auth.otp.send",
		Detail:   "email=" + maskEmail(email),
		TargetID: user.ID,
	})

	return challenge.ExpiresAt, nil
}

// VerifyOtp consumes the current challenge of the user when code matches.
// An unknown email is common.ErrorNotFound; a missing, expired, locked or
// mismatched challenge is common.ErrorUnauthorized.
func (s *AuthService) VerifyOtp(ctx context.Context, tenantID, email, code string) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !isOtpCode(code) {
		return nil, validationf("code must be %d digits", common.OtpCodeLength)
	}
	emailHash := hashEmail(email)

	if err := ratelimit.Check(ctx, s.limiters.Verify, emailHash, s.logger); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmailHash(ctx, tenantID, emailHash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	now := s.clock.Now()
	otps := s.repomanager.OtpChallenges(s.db)

	challenge, err := otps.FindActive(ctx, user.ID, now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching otp challenge: %w", err)
	}

	// The try is counted before the hash is compared, so parallel guesses
	// cannot all slip in under the limit.
	if s.maxAttempts > 0 {
		if _, err := otps.ReserveAttempt(ctx, challenge.ID, s.maxAttempts); err != nil {
			if errors.Is(err, common.ErrOtpLocked) {
				return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrOtpLocked)
			}
			return nil, fmt.Errorf("error counting otp attempt: %w", err)
		}
	}

	ok, err := verifyOtpCode(challenge.CodeHash, code)
	if err != nil {
		return nil, fmt.Errorf("error verifying otp: %w", err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	if err := otps.Consume(ctx, challenge.ID, now); err != nil {
		return nil, err
	}

	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{
		Action:   "auth.login",
		ActorID:  user.ID,
		Detail:   "email=" + maskEmail(email),
		TargetID: user.ID,
	})

	return &LoginResult{
		Token: s.signer.Sign(user.ID),
		User:  SessionUser{UserID: user.ID, Role: user.Role, Email: email},
	}, nil
}

// Logout records the logout when token is still valid. It never fails.
func (s *AuthService) Logout(ctx context.Context, tenantID, token string) {
	if token == "" {
		return
	}
	sess, err := s.signer.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "logout session verification failed", "error", err)
		return
	}
	s.audit.RecordQuietly(ctx, tenantID, AuditEntry{Action: "auth.logout", ActorID: sess.UserID, TargetID: sess.UserID})
}

// Authenticate resolves token to its user or fails with
// common.ErrorUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	sess, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// Session returns the user behind token, or nil for any failure.
func (s *AuthService) Session(ctx context.Context, token string) *SessionUser {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil
	}
	return &SessionUser{UserID: user.ID, Role: user.Role, Email: user.Email}
}
