package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const defaultAPIKeyLength = 32

// APIKeyGenerator builds keys of the form <prefix><length random alphanumerics>.
type APIKeyGenerator struct {
	prefix string
	length int
}

func NewAPIKeyGenerator(prefix string, length int) *APIKeyGenerator {
	if length <= 0 {
		length = defaultAPIKeyLength
	}
	return &APIKeyGenerator{prefix: prefix, length: length}
}

// Generate draws every character from crypto/rand without modulo bias.
func (g *APIKeyGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(apiKeyAlphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		buf[i] = apiKeyAlphabet[n.Int64()]
	}
	return g.prefix + string(buf), nil
}
