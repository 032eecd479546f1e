package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	"github.com/99minutos/identity-service/internal/infrastructure/security"
)

const (
	testSecret = "test-signing-secret"
	testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testIVHex  = "0f0e0d0c0b0a09080706050403020100"
)

var testBounds = domain.PageBounds{MinPerPage: 2, DefaultPerPage: 20, MaxPerPage: 50}

// countingHasher records how many comparisons ran, and against which hashes.
type countingHasher struct {
	inner    *security.BcryptHasher
	compares atomic.Int32
	last     atomic.Value
}

func (h *countingHasher) Hash(ctx context.Context, password string) (string, error) {
	return h.inner.Hash(ctx, password)
}

func (h *countingHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	h.compares.Add(1)
	h.last.Store(hash)
	return h.inner.Compare(ctx, hash, password)
}

type fixture struct {
	repo   *memory.UserRepository
	hasher *countingHasher
	cipher *security.KeyCipher
	users  *UserService
	tokens *TokenService
	auth   *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cipher, err := security.NewKeyCipher("aes-256-cbc", testKeyHex, testIVHex)
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	f := &fixture{
		repo:   memory.NewUserRepository(),
		hasher: &countingHasher{inner: security.NewBcryptHasher(bcrypt.MinCost, nil)},
		cipher: cipher,
		tokens: NewTokenService(testSecret, time.Minute, time.Hour),
	}
	f.users = NewUserService(f.repo, f.hasher, cipher, security.NewAPIKeyGenerator("dev_", 32), testBounds, zerolog.Nop())

	f.auth, err = NewAuthService(context.Background(), f.users, f.tokens, f.hasher, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return f
}

func (f *fixture) mustCreate(t *testing.T, email, username, password string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), domain.NewUser{
		Email:    email,
		Username: username,
		Name:     "Test " + username,
		Password: password,
	})
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return u
}
