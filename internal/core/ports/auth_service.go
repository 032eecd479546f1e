package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// SignUpInput is the public registration payload.
type SignUpInput struct {
	Email    string
	Username string
	Name     string
	Password string
}

// AuthService orchestrates credential checks and token issuance.
type AuthService interface {
	// ValidateUser returns (nil, nil) for an unknown email and for a wrong
	// password alike.
	ValidateUser(ctx context.Context, email, password string) (*domain.UserView, error)
	ValidateAPIKey(ctx context.Context, rawKey string) (*domain.UserView, error)
	SignIn(ctx context.Context, user *domain.UserView) (*domain.TokenPair, error)
	SignUp(ctx context.Context, input SignUpInput) (*domain.UserView, error)
	Refresh(ctx context.Context, userID, refreshToken string) (*domain.TokenPair, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}
