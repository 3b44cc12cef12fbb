// Package metadata is the console's session cache: the cookie token of the
// logged-in staff member, the identity shown by whoami while offline, and
// the time of the last successful sync.
package metadata

import (
	"context"
	"time"
)

const (
	KeySessionToken = "session_token"
	KeyEmail        = "email"
	KeyRole         = "role"
	KeyLastSync     = "last_sync"
)

// Session is what a login leaves behind on disk.
type Session struct {
	Token string
	Email string
	Role  string
}

type Repository interface {
	// Get returns "" for a missing key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)

	// LoadSession returns nil when no token is stored.
	LoadSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, s Session) error
	// ForgetSession drops token and identity but keeps the sync mark.
	ForgetSession(ctx context.Context) error
	MarkSynced(ctx context.Context, at time.Time) error
}
