package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
	"github.com/golang-jwt/jwt/v5"
)

const receiptIssuer = "silentvoice"

// ReceiptClaims identify the report an anonymous reporter may follow up on.
type ReceiptClaims struct {
	jwt.RegisteredClaims
	ReportID string `json:"rid"`
	TenantID string `json:"tid"`
}

// ReceiptIssuer mints and checks HS256 report receipts.
type ReceiptIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  timex.Clock
}

// NewReceiptIssuer falls back to a random per-process secret when secret is
// empty; receipts then stop verifying after a restart.
func NewReceiptIssuer(secret string, ttl time.Duration, clock timex.Clock) (*ReceiptIssuer, error) {
	if secret == "" {
		s, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, err
		}
		secret = s
	}
	return &ReceiptIssuer{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

func (r *ReceiptIssuer) Issue(tenantID, reportID string) (string, error) {
	now := r.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ReceiptClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    receiptIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
		ReportID: reportID,
		TenantID: tenantID,
	})

	return token.SignedString(r.secret)
}

// Parse returns the claims of a valid receipt. Expired receipts yield
// common.ErrTokenExpired, anything else common.ErrInvalidToken.
func (r *ReceiptIssuer) Parse(tokenString string) (*ReceiptClaims, error) {
	claims := &ReceiptClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(receiptIssuer),
		jwt.WithTimeFunc(r.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.ReportID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
