package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceipt_IssueParse(t *testing.T) {
	r, err := NewReceiptIssuer("receipt-secret", 90*24*time.Hour, nil)
	require.NoError(t, err)

	tok, err := r.Issue("t-1", "r-1")
	require.NoError(t, err)

	c, err := r.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "r-1", c.ReportID)
	assert.Equal(t, "t-1", c.TenantID)
}

func TestReceipt_Expired(t *testing.T) {
	issuer, err := NewReceiptIssuer("s", time.Hour, timex.Fixed(t0))
	require.NoError(t, err)
	tok, err := issuer.Issue("t", "r")
	require.NoError(t, err)

	later, err := NewReceiptIssuer("s", time.Hour, timex.Fixed(t0.Add(2*time.Hour)))
	require.NoError(t, err)

	_, err = later.Parse(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestReceipt_Invalid(t *testing.T) {
	a, err := NewReceiptIssuer("a", time.Hour, nil)
	require.NoError(t, err)
	b, err := NewReceiptIssuer("b", time.Hour, nil)
	require.NoError(t, err)

	tok, err := a.Issue("t", "r")
	require.NoError(t, err)

	_, err = b.Parse(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = a.Parse("garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	// a token signed with the right key but without a report id
	bare, err := jwt.NewWithClaims(jwt.SigningMethodHS256, ReceiptClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "silentvoice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("a"))
	require.NoError(t, err)
	_, err = a.Parse(bare)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
