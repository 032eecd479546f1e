package security

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/infrastructure/workers"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, nil)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "pw1-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1-secret", hash)

	ok, err := h.Compare(ctx, hash, "pw1-secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(ctx, hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, nil)

	a, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)
	b, err := h.Hash(context.Background(), "same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, nil)

	ok, err := h.Compare(context.Background(), "not-a-hash", "pw")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0, nil).Cost())
	assert.Equal(t, 12, NewBcryptHasher(12, nil).Cost())
}

func TestBcryptHasher_RunsOnPool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := workers.NewPool(1, zerolog.Nop())
	pool.Start(ctx)
	h := NewBcryptHasher(bcrypt.MinCost, pool)

	hash, err := h.Hash(ctx, "pooled")
	require.NoError(t, err)
	ok, err := h.Compare(ctx, hash, "pooled")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBcryptHasher_CancelledContext(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.Canceled)
}
