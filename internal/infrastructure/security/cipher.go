package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCiphertext is returned when a stored secret cannot be decrypted.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

var keySizes = map[string]int{
	"aes-128-cbc": 16,
	"aes-192-cbc": 24,
	"aes-256-cbc": 32,
}

// KeyCipher encrypts API keys with AES-CBC under a fixed key and IV.
// The fixed IV makes the output deterministic, which lookup by encrypted
// key depends on. Ciphertexts are hex encoded.
type KeyCipher struct {
	block cipher.Block
	iv    []byte
}

// NewKeyCipher builds a cipher from an algorithm name (aes-128-cbc,
// aes-192-cbc or aes-256-cbc) and hex-encoded key and IV.
func NewKeyCipher(algorithm, keyHex, ivHex string) (*KeyCipher, error) {
	size, ok := keySizes[strings.ToLower(strings.TrimSpace(algorithm))]
	if !ok {
		return nil, fmt.Errorf("unsupported encryption algorithm %q", algorithm)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != size {
		return nil, fmt.Errorf("encryption key must be %d bytes for %s, got %d", size, algorithm, len(key))
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("decode encryption iv: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("encryption iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &KeyCipher{block: block, iv: iv}, nil
}

func (c *KeyCipher) Encrypt(plaintext string) (string, error) {
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out), nil
}

func (c *KeyCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil || len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", ErrMalformedCiphertext
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, ErrMalformedCiphertext
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrMalformedCiphertext
		}
	}
	return b[:len(b)-n], nil
}
