package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	BundleVersion = 1
	BundleAlg     = "AES-GCM-256/PBKDF2-SHA256"

	// BundleIterations is the PBKDF2 work factor for bundle keys.
	BundleIterations = 200000

	bundleSaltLen = 16
	bundleIVLen   = 12
	bundleKeyLen  = 32
)

// Bundle is the on-disk form of an encrypted export. All binary fields are
// standard base64; Ciphertext includes the GCM tag.
type Bundle struct {
	Version    int    `json:"version"`
	Alg        string `json:"alg"`
	IV         string `json:"iv"`
	Salt       string `json:"salt"`
	Ciphertext string `json:"ciphertext"`
}

// DeriveBundleKey stretches passphrase with PBKDF2-HMAC-SHA256.
func DeriveBundleKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, BundleIterations, bundleKeyLen, sha256.New)
}

// EncryptString seals plaintext under a key derived from passphrase. Salt and
// IV are freshly generated on every call.
func EncryptString(plaintext, passphrase string) (*Bundle, error) {
	salt := common.GenerateRandByteArray(bundleSaltLen)
	iv := common.GenerateRandByteArray(bundleIVLen)

	key := DeriveBundleKey(passphrase, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	ct := aesgcm.Seal(nil, iv, []byte(plaintext), nil)

	return &Bundle{
		Version:    BundleVersion,
		Alg:        BundleAlg,
		IV:         base64.StdEncoding.EncodeToString(iv),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
	}, nil
}

// DecryptString reverses EncryptString. Every failure past the format check
// (undecodable fields, wrong passphrase, tampered ciphertext) is reported as
// common.ErrDecryption and no plaintext is returned.
func DecryptString(b *Bundle, passphrase string) (string, error) {
	if b == nil || b.Version != BundleVersion || b.Alg != BundleAlg {
		return "", common.ErrBundleFormat
	}

	iv, err := base64.StdEncoding.DecodeString(b.IV)
	if err != nil || len(iv) != bundleIVLen {
		return "", common.ErrDecryption
	}
	salt, err := base64.StdEncoding.DecodeString(b.Salt)
	if err != nil || len(salt) == 0 {
		return "", common.ErrDecryption
	}
	ct, err := base64.StdEncoding.DecodeString(b.Ciphertext)
	if err != nil {
		return "", common.ErrDecryption
	}

	key := DeriveBundleKey(passphrase, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", common.ErrDecryption
	}
	pt, err := aesgcm.Open(nil, iv, ct, nil)
	if err != nil {
		return "", common.ErrDecryption
	}
	return string(pt), nil
}

// ParseBundle decodes bundle JSON. Malformed input yields common.ErrBundleFormat.
func ParseBundle(data []byte) (*Bundle, error) {
	b := &Bundle{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBundleFormat, err)
	}
	if b.Version != BundleVersion || b.Alg != BundleAlg {
		return nil, fmt.Errorf("%w: unsupported version %d alg %q", common.ErrBundleFormat, b.Version, b.Alg)
	}
	return b, nil
}
