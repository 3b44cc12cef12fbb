package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/google/uuid"
)

// normalizeEmail trims and lower-cases email and checks it is a bare
// address (no display name).
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	return email, nil
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// maskEmail keeps the first and last character of the local part.
func maskEmail(email string) string {
	name, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return "***"
	}

	r := []rune(name)
	var masked string
	switch {
	case len(r) == 0:
		masked = "**"
	case len(r) <= 2:
		masked = string(r[0]) + "*"
	default:
		masked = string(r[0]) + "***" + string(r[len(r)-1])
	}
	return masked + "@" + domain
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// firstRunes returns at most n runes of s.
func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrorValidation}, args...)...)
}
