package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserService is the user directory.
type UserService interface {
	Create(ctx context.Context, input domain.NewUser) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.UserView, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByEmailSafe returns (nil, nil) when no user has the email.
	FindByEmailSafe(ctx context.Context, email string) (*domain.User, error)
	FindByAPIKey(ctx context.Context, rawKey string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	Remove(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	ListPage(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.UserView], error)
	RevealAPIKey(ctx context.Context, id string) (string, error)
	RotateAPIKey(ctx context.Context, id string) (string, error)
}
