package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserRepository is the credential store. Implementations enforce
// uniqueness of email, username and API key secret and report a violation
// as *domain.ConflictError; missing rows are domain.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// FindByID returns the full record, secrets included.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindViewByID never reads the secret fields from storage.
	FindViewByID(ctx context.Context, id string) (*domain.UserView, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByAPIKeySecret(ctx context.Context, secret string) (*domain.User, error)
	// FindConflict returns the unique field already taken by another user,
	// preferring email over username, or "" when both are free.
	FindConflict(ctx context.Context, email, username string) (string, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateAPIKeySecret(ctx context.Context, id, secret string) error
	Delete(ctx context.Context, id string) error
	// List returns one page of redacted users and the total count.
	List(ctx context.Context, req domain.PageRequest) ([]*domain.UserView, int64, error)
}
