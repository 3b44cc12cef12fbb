package models

import "time"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is keyed by the SHA-256 hex of the normalized email. The email itself
// is kept for the session view only.
type User struct {
	ID        string
	TenantID  string
	Email     string
	EmailHash string
	Role      string
	CreatedAt time.Time
}

// OtpChallenge is one issued login code. CodeHash is an encoded argon2id
// hash; the code itself is never stored.
type OtpChallenge struct {
	ID         string
	UserID     string
	CodeHash   string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	Attempts   int
}
