package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/identity-service/internal/pkg/metrics"
	"github.com/99minutos/identity-service/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// tokenClaims is the JWT payload. Refresh tokens leave the identity fields
// empty so a renewed access token is always built from the stored user.
type tokenClaims struct {
	Email    string           `json:"email,omitempty"`
	Username string           `json:"username,omitempty"`
	Name     string           `json:"name,omitempty"`
	Role     domain.Role      `json:"role,omitempty"`
	Type     domain.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenService signs HS256 access and refresh tokens. It holds no state
// besides its immutable settings.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *TokenService) IssueAccess(user *domain.UserView) (string, error) {
	return s.sign(tokenClaims{
		Email:    user.Email,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
		Type:     domain.TokenAccess,
	}, user.ID, s.accessTTL)
}

func (s *TokenService) IssueRefresh(userID string) (string, error) {
	return s.sign(tokenClaims{Type: domain.TokenRefresh}, userID, s.refreshTTL)
}

func (s *TokenService) sign(claims tokenClaims, subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(claims.Type)).Inc()
	return signed, nil
}

// Verify checks signature, algorithm, expiry and token type.
func (s *TokenService) Verify(token string, expected domain.TokenType) (*domain.Claims, error) {
	claims, err := s.parse(token)
	if err == nil && claims.Type != expected {
		err = errors.New("unexpected token type")
	}
	if err != nil {
		metrics.TokenRejectionsTotal.WithLabelValues(string(expected)).Inc()
		return nil, domain.ErrInvalidToken
	}

	out := &domain.Claims{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		Name:     claims.Name,
		Role:     claims.Role,
		Type:     claims.Type,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *TokenService) parse(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
