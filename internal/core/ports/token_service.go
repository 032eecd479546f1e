package ports

import "github.com/99minutos/identity-service/internal/core/domain"

// TokenService signs and verifies access and refresh tokens.
type TokenService interface {
	IssueAccess(user *domain.UserView) (string, error)
	IssueRefresh(userID string) (string, error)
	Verify(token string, expected domain.TokenType) (*domain.Claims, error)
}
