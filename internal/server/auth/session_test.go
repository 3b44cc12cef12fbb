package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func newSigner(t *testing.T, cfg SessionConfig, now time.Time) *SessionSigner {
	t.Helper()
	s, err := NewSessionSigner(cfg, timex.Fixed(now))
	require.NoError(t, err)
	return s
}

func TestSignVerify_RoundTrip(t *testing.T) {
	s := newSigner(t, SessionConfig{Secret: "k", TTL: 7 * 24 * time.Hour}, t0)

	tok := s.Sign("user-1")
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	assert.Equal(t, "user-1", parts[0])
	assert.Len(t, parts[2], 64)

	sess, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	assert.True(t, sess.IssuedAt.Equal(t0))
}

func TestVerify_BitFlip(t *testing.T) {
	s := newSigner(t, SessionConfig{Secret: "k"}, t0)
	tok := s.Sign("user-1")

	b := []byte(tok)
	last := len(b) - 1
	if b[last] == 'a' {
		b[last] = 'b'
	} else {
		b[last] = 'a'
	}

	_, err := s.Verify(string(b))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// tampering with the user id breaks the signature too
	_, err = s.Verify("user-2" + tok[len("user-1"):])
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestVerify_Malformed(t *testing.T) {
	s := newSigner(t, SessionConfig{Secret: "k"}, t0)
	for _, tok := range []string{"", "a", "a.b", "a..c", ".1.c", "a.1.", "a.b.c.d"} {
		_, err := s.Verify(tok)
		assert.ErrorIs(t, err, common.ErrorUnauthorized, tok)
	}
}

func TestVerify_OtherSecret(t *testing.T) {
	a := newSigner(t, SessionConfig{Secret: "a"}, t0)
	b := newSigner(t, SessionConfig{Secret: "b"}, t0)

	_, err := b.Verify(a.Sign("u"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestVerify_Rotation(t *testing.T) {
	old := newSigner(t, SessionConfig{Secret: "old"}, t0)
	cur := newSigner(t, SessionConfig{Secret: "new", PreviousSecrets: []string{"", "old"}}, t0)

	sess, err := cur.Verify(old.Sign("u"))
	require.NoError(t, err)
	assert.Equal(t, "u", sess.UserID)

	// new tokens are signed with the current secret only
	_, err = old.Verify(cur.Sign("u"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestVerify_Expiry(t *testing.T) {
	issuer := newSigner(t, SessionConfig{Secret: "k"}, t0)
	tok := issuer.Sign("u")

	fresh := newSigner(t, SessionConfig{Secret: "k", TTL: time.Hour}, t0.Add(59*time.Minute))
	_, err := fresh.Verify(tok)
	assert.NoError(t, err)

	stale := newSigner(t, SessionConfig{Secret: "k", TTL: time.Hour}, t0.Add(61*time.Minute))
	_, err = stale.Verify(tok)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	noTTL := newSigner(t, SessionConfig{Secret: "k"}, t0.Add(365*24*time.Hour))
	_, err = noTTL.Verify(tok)
	assert.NoError(t, err)
}

func TestVerify_FutureIssued(t *testing.T) {
	issuer := newSigner(t, SessionConfig{Secret: "k"}, t0.Add(5*time.Minute))
	verifier := newSigner(t, SessionConfig{Secret: "k"}, t0)

	_, err := verifier.Verify(issuer.Sign("u"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestNewSessionSigner_RandomSecret(t *testing.T) {
	a := newSigner(t, SessionConfig{}, t0)
	b := newSigner(t, SessionConfig{}, t0)

	_, err := a.Verify(a.Sign("u"))
	require.NoError(t, err)
	_, err = b.Verify(a.Sign("u"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func Test_signatureEqual(t *testing.T) {
	assert.True(t, signatureEqual("abc", "abc"))
	assert.False(t, signatureEqual("abc", "abd"))
	assert.False(t, signatureEqual("abc", "abc\x00"))
	assert.False(t, signatureEqual("", "a"))
	assert.True(t, signatureEqual("", ""))
}
