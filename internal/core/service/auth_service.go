package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/pkg/metrics"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// dummyPassword only feeds the hash compared against when an email is
// unknown; nobody can sign in with it.
const dummyPassword = "identity-service/timing-equaliser"

// AuthService implements credential validation and token issuance.
type AuthService struct {
	users     ports.UserService
	tokens    ports.TokenService
	hasher    ports.PasswordHasher
	dummyHash string
	logger    zerolog.Logger
}

// NewAuthService hashes a dummy password once so ValidateUser can spend the
// same bcrypt work on unknown emails as on wrong passwords.
func NewAuthService(ctx context.Context, users ports.UserService, tokens ports.TokenService, hasher ports.PasswordHasher, logger zerolog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash(ctx, dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummy,
		logger:    logger,
	}, nil
}

// ValidateUser returns the redacted user when email and password match, and
// (nil, nil) otherwise. Exactly one bcrypt comparison runs either way.
func (s *AuthService) ValidateUser(ctx context.Context, email, password string) (*domain.UserView, error) {
	user, err := s.users.FindByEmailSafe(ctx, email)
	if err != nil {
		return nil, err
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}

	ok, err := s.hasher.Compare(ctx, hash, password)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn().Err(err).Msg("password comparison failed")
		ok = false
	}
	if user == nil || !ok {
		metrics.SignInAttemptsTotal.WithLabelValues("rejected").Inc()
		return nil, nil
	}

	metrics.SignInAttemptsTotal.WithLabelValues("success").Inc()
	return user.Redacted(), nil
}

// ValidateAPIKey returns (nil, nil) when no user owns rawKey. Only store
// failures are returned as errors.
func (s *AuthService) ValidateAPIKey(ctx context.Context, rawKey string) (*domain.UserView, error) {
	if rawKey == "" {
		return nil, nil
	}
	user, err := s.users.FindByAPIKey(ctx, rawKey)
	switch {
	case err == nil:
		metrics.APIKeyAuthTotal.WithLabelValues("success").Inc()
		return user.Redacted(), nil
	case errors.Is(err, domain.ErrNotFound):
		metrics.APIKeyAuthTotal.WithLabelValues("rejected").Inc()
		return nil, nil
	default:
		return nil, err
	}
}

func (s *AuthService) SignIn(_ context.Context, user *domain.UserView) (*domain.TokenPair, error) {
	return s.issuePair(user)
}

func (s *AuthService) SignUp(ctx context.Context, input ports.SignUpInput) (*domain.UserView, error) {
	user, err := s.users.Create(ctx, domain.NewUser{
		Email:    input.Email,
		Username: input.Username,
		Name:     input.Name,
		Password: input.Password,
		Role:     domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	return user.Redacted(), nil
}

// Refresh mints a new pair for userID. The refresh token must verify and
// name userID as its subject; claims are rebuilt from the current stored
// user. The presented refresh token is not invalidated.
func (s *AuthService) Refresh(ctx context.Context, userID, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, domain.TokenRefresh)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if claims.Subject != userID {
		s.logger.Warn().Str("user_id", userID).Msg("refresh token subject mismatch")
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return s.issuePair(user)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return s.users.ChangePassword(ctx, userID, currentPassword, newPassword)
}

func (s *AuthService) issuePair(user *domain.UserView) (*domain.TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
