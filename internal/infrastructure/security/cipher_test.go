package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testIV  = "0f0e0d0c0b0a09080706050403020100"
)

func newTestCipher(t *testing.T) *KeyCipher {
	t.Helper()
	c, err := NewKeyCipher("aes-256-cbc", testKey, testIV)
	require.NoError(t, err)
	return c
}

func TestKeyCipher_Deterministic(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("dev_abcdefghijklmnopqrstuvwxyz012345")
	require.NoError(t, err)
	b, err := c.Encrypt("dev_abcdefghijklmnopqrstuvwxyz012345")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotContains(t, a, "dev_")
}

func TestKeyCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, raw := range []string{"", "x", "sixteen-bytes-!!", "dev_" + strings.Repeat("Z", 32)} {
		enc, err := c.Encrypt(raw)
		require.NoError(t, err)
		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, raw, dec)
	}
}

func TestKeyCipher_DifferentInputsDiffer(t *testing.T) {
	c := newTestCipher(t)

	a, _ := c.Encrypt("dev_key_one")
	b, _ := c.Encrypt("dev_key_two")
	assert.NotEqual(t, a, b)
}

func TestKeyCipher_MalformedCiphertext(t *testing.T) {
	c := newTestCipher(t)

	for _, bad := range []string{"zz", "", "abcd", strings.Repeat("ab", 15)} {
		_, err := c.Decrypt(bad)
		assert.ErrorIs(t, err, ErrMalformedCiphertext, bad)
	}
}

func TestNewKeyCipher_Validation(t *testing.T) {
	_, err := NewKeyCipher("des-cbc", testKey, testIV)
	assert.Error(t, err)

	_, err = NewKeyCipher("aes-128-cbc", testKey, testIV)
	assert.Error(t, err, "32-byte key must be rejected for aes-128")

	_, err = NewKeyCipher("aes-256-cbc", "not-hex", testIV)
	assert.Error(t, err)

	_, err = NewKeyCipher("aes-256-cbc", testKey, "0011")
	assert.Error(t, err)

	_, err = NewKeyCipher("AES-256-CBC", testKey, testIV)
	assert.NoError(t, err)
}
