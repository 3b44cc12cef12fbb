// Package auth signs and verifies the credentials the API hands out: the
// HMAC session cookie for staff and the JWT receipt for anonymous reporters.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

// maxFutureSkew bounds how far ahead of the server clock a token's issue
// time may be.
const maxFutureSkew = time.Minute

// SessionConfig configures a SessionSigner.
type SessionConfig struct {
	// Secret signs new tokens. Empty means a random per-process secret.
	Secret string
	// PreviousSecrets are still accepted by Verify during a rotation.
	PreviousSecrets []string
	// TTL bounds token age. Zero disables the check.
	TTL time.Duration
}

// Session is the verified content of a token.
type Session struct {
	UserID   string
	IssuedAt time.Time
}

// SessionSigner produces tokens of the form userId.epochMillis.hexHMAC.
type SessionSigner struct {
	secret   []byte
	previous [][]byte
	ttl      time.Duration
	clock    timex.Clock
}

// NewSessionSigner builds a signer. clock may be nil for the wall clock.
func NewSessionSigner(cfg SessionConfig, clock timex.Clock) (*SessionSigner, error) {
	secret := cfg.Secret
	if secret == "" {
		s, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, err
		}
		secret = s
	}

	prev := make([][]byte, 0, len(cfg.PreviousSecrets))
	for _, p := range cfg.PreviousSecrets {
		if p != "" {
			prev = append(prev, []byte(p))
		}
	}

	return &SessionSigner{secret: []byte(secret), previous: prev, ttl: cfg.TTL, clock: clock}, nil
}

func (s *SessionSigner) Sign(userID string) string {
	payload := userID + "." + strconv.FormatInt(s.clock.Now().UnixMilli(), 10)
	return payload + "." + computeSignature(s.secret, payload)
}

// Verify checks the token shape, its signature against the current and the
// previous secrets, and its age. Every failure is common.ErrorUnauthorized.
func (s *SessionSigner) Verify(token string) (*Session, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, common.ErrorUnauthorized
	}
	payload := parts[0] + "." + parts[1]

	ok := signatureEqual(parts[2], computeSignature(s.secret, payload))
	for _, p := range s.previous {
		if signatureEqual(parts[2], computeSignature(p, payload)) {
			ok = true
		}
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	issuedAt := time.UnixMilli(ms)

	now := s.clock.Now()
	if issuedAt.After(now.Add(maxFutureSkew)) {
		return nil, common.ErrorUnauthorized
	}
	if s.ttl > 0 && issuedAt.Add(s.ttl).Before(now) {
		return nil, common.ErrorUnauthorized
	}

	return &Session{UserID: parts[0], IssuedAt: issuedAt}, nil
}

func computeSignature(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureEqual compares over the longer of both inputs without
// short-circuiting; missing bytes count as zero.
func signatureEqual(a, b string) bool {
	n := max(len(a), len(b))
	var mismatch byte
	if len(a) != len(b) {
		mismatch = 1
	}
	for i := 0; i < n; i++ {
		var ca, cb byte
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		mismatch |= ca ^ cb
	}
	return mismatch == 0
}
