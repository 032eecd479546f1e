package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyGenerator_Format(t *testing.T) {
	g := NewAPIKeyGenerator("dev_", 32)

	key, err := g.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "dev_"))
	assert.Len(t, key, 36)
	for _, r := range strings.TrimPrefix(key, "dev_") {
		assert.Contains(t, apiKeyAlphabet, string(r))
	}
}

func TestAPIKeyGenerator_Unique(t *testing.T) {
	g := NewAPIKeyGenerator("dev_", 32)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key, err := g.Generate()
		require.NoError(t, err)
		_, dup := seen[key]
		require.False(t, dup)
		seen[key] = struct{}{}
	}
}

func TestAPIKeyGenerator_DefaultLength(t *testing.T) {
	key, err := NewAPIKeyGenerator("", 0).Generate()
	require.NoError(t, err)
	assert.Len(t, key, defaultAPIKeyLength)
}
