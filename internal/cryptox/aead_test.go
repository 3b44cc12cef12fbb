package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromSecret(t *testing.T) {
	k := KeyFromSecret("report-secret")
	assert.Len(t, k, 32)
	assert.Equal(t, k, KeyFromSecret("report-secret"))
	assert.NotEqual(t, k, KeyFromSecret("other"))
}

func TestEncryptDecrypt(t *testing.T) {
	key := KeyFromSecret("k")
	ct, nonce, err := Encrypt([]byte("本文です"), key)
	require.NoError(t, err)
	assert.Len(t, nonce, 12)

	pt, err := Decrypt(ct, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, "本文です", string(pt))
}

func TestDecrypt_Failures(t *testing.T) {
	key := KeyFromSecret("k")
	ct, nonce, err := Encrypt([]byte("hello"), key)
	require.NoError(t, err)

	_, err = Decrypt(ct, nonce, KeyFromSecret("other"))
	assert.ErrorIs(t, err, common.ErrDecryption)

	_, err = Decrypt(ct, nonce[:4], key)
	assert.ErrorIs(t, err, common.ErrDecryption)

	tampered := append([]byte(nil), ct...)
	tampered[0] ^= 0xff
	_, err = Decrypt(tampered, nonce, key)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestEncrypt_BadKey(t *testing.T) {
	_, _, err := Encrypt([]byte("x"), []byte("short"))
	assert.Error(t, err)
}
