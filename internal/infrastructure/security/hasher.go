// Package security holds the secret primitives: bcrypt password hashing,
// deterministic API key encryption and API key generation.
package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/pkg/metrics"
)

// Runner executes fn somewhere else and waits for it; *workers.Pool satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func() error) error
}

// BcryptHasher hashes passwords with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost   int
	runner Runner
}

// NewBcryptHasher returns a hasher using cost (bcrypt.DefaultCost when out
// of range). A nil runner runs the work on the calling goroutine.
func NewBcryptHasher(cost int, runner Runner) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost, runner: runner}
}

// Cost returns the work factor in use.
func (h *BcryptHasher) Cost() int { return h.cost }

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	var hash []byte
	err := h.run(ctx, "hash", func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	var cmpErr error
	err := h.run(ctx, "compare", func() error {
		cmpErr = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		return nil
	})
	if err != nil {
		return false, err
	}
	switch {
	case cmpErr == nil:
		return true, nil
	case errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", cmpErr)
	}
}

func (h *BcryptHasher) run(ctx context.Context, op string, fn func() error) error {
	timed := func() error {
		start := time.Now()
		defer func() {
			metrics.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}()
		return fn()
	}
	if h.runner == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return timed()
	}
	return h.runner.Do(ctx, timed)
}
