package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/client/client"
	"github.com/dmitrijs2005/silentvoice/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/dbx"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

// AuthService runs the emailed-code login against the server and keeps the
// session cookie in local metadata so it survives restarts.
type AuthService struct {
	db     *sql.DB
	api    client.Client
	clock  timex.Clock
	logger logging.Logger
}

func NewAuthService(db *sql.DB, api client.Client, logger logging.Logger) *AuthService {
	return &AuthService{db: db, api: api, logger: logger.With("module", "auth")}
}

func (a *AuthService) meta() metadata.Repository { return metadata.NewSQLiteRepository(a.db) }

// Restore loads a stored session token into the API client. It returns the
// email the token belongs to, or "" when there is none.
func (a *AuthService) Restore(ctx context.Context) (string, error) {
	sess, err := a.meta().LoadSession(ctx)
	if err != nil || sess == nil {
		return "", err
	}
	a.api.SetToken(sess.Token)
	return sess.Email, nil
}

func (a *AuthService) SendOtp(ctx context.Context, email string) (time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return time.Time{}, validationf("email is required")
	}
	return a.api.SendOtp(ctx, email)
}

// VerifyOtp completes the login and persists the session.
func (a *AuthService) VerifyOtp(ctx context.Context, email, code string) (*client.SessionUser, error) {
	code = strings.TrimSpace(code)
	if len(code) != common.OtpCodeLength {
		return nil, validationf("code must be %d digits", common.OtpCodeLength)
	}

	user, err := a.api.VerifyOtp(ctx, strings.TrimSpace(email), code)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sess := metadata.Session{Token: a.api.Token(), Email: user.Email, Role: user.Role}
		if err := metadata.NewSQLiteRepository(tx).SaveSession(ctx, sess); err != nil {
			return err
		}
		return addLog(ctx, tx, a.clock, "auth.login", user.UserID, "")
	})
	if err != nil {
		return nil, fmt.Errorf("error saving session: %w", err)
	}
	return user, nil
}

// Logout always drops the local session; a server that cannot be reached
// is only logged.
func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "server logout failed", "error", err)
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.NewSQLiteRepository(tx).ForgetSession(ctx); err != nil {
			return err
		}
		return addLog(ctx, tx, a.clock, "auth.logout", "", "")
	})
}

// WhoAmI asks the server first and falls back to the cached identity when
// offline. A token the server rejects is forgotten.
func (a *AuthService) WhoAmI(ctx context.Context) (*client.SessionUser, error) {
	if a.api.Token() == "" {
		return nil, client.ErrNotLoggedIn
	}

	user, err := a.api.Session(ctx)
	switch {
	case err == nil && user != nil:
		return user, nil
	case err == nil:
		a.api.SetToken("")
		if derr := a.meta().Delete(ctx, metadata.KeySessionToken); derr != nil {
			return nil, derr
		}
		return nil, client.ErrNotLoggedIn
	case errors.Is(err, client.ErrUnavailable):
		sess, merr := a.meta().LoadSession(ctx)
		if merr != nil {
			return nil, merr
		}
		if sess == nil {
			return nil, client.ErrNotLoggedIn
		}
		return &client.SessionUser{Email: sess.Email, Role: sess.Role}, nil
	default:
		return nil, err
	}
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.api.Ping(ctx)
}
