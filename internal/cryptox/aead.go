// Package cryptox collects the cryptographic primitives of Silent Voice:
// argon2id hashing of one-time codes, AES-GCM sealing of report bodies at rest
// and the passphrase-protected export bundle.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"

	"github.com/dmitrijs2005/silentvoice/internal/common"
)

// KeyFromSecret turns a configured secret of any length into an AES-256 key.
func KeyFromSecret(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// Encrypt seals plaintext with AES-GCM under key using a fresh random nonce.
// The key must be 16, 24 or 32 bytes long.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt with the same key and nonce.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, common.ErrDecryption
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryption
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
