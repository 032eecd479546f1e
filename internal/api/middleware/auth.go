package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// HeaderAPIKey carries a raw API key.
const HeaderAPIKey = "X-API-Key"

const (
	actorKey    = "actor"
	signedInKey = "signed_in_user"
)

// Actor returns the claims attached by one of the authentication guards, or
// nil when the request is anonymous.
func Actor(c echo.Context) *domain.Claims {
	claims, _ := c.Get(actorKey).(*domain.Claims)
	return claims
}

// SetActor attaches claims as the request's actor.
func SetActor(c echo.Context, claims *domain.Claims) {
	c.Set(actorKey, claims)
}

// SignedIn returns the user whose credentials the Credentials guard accepted.
func SignedIn(c echo.Context) *domain.UserView {
	user, _ := c.Get(signedInKey).(*domain.UserView)
	return user
}

func SetSignedIn(c echo.Context, user *domain.UserView) {
	c.Set(signedInKey, user)
	SetActor(c, domain.ClaimsFor(user))
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", domain.ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", domain.ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// tokenGuard verifies a bearer token of the given type and attaches its claims.
func tokenGuard(tokens ports.TokenService, expected domain.TokenType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			claims, err := tokens.Verify(raw, expected)
			if err != nil {
				return domain.ErrInvalidToken
			}
			SetActor(c, claims)
			return next(c)
		}
	}
}

// AccessToken admits requests bearing a valid access token.
func AccessToken(tokens ports.TokenService) echo.MiddlewareFunc {
	return tokenGuard(tokens, domain.TokenAccess)
}

// RefreshToken admits requests bearing a valid refresh token. Only the
// refresh endpoint uses it.
func RefreshToken(tokens ports.TokenService) echo.MiddlewareFunc {
	return tokenGuard(tokens, domain.TokenRefresh)
}

// APIKey admits requests whose X-API-Key header belongs to a user.
func APIKey(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderAPIKey)
			if key == "" {
				return domain.ErrInvalidAPIKey
			}
			user, err := auth.ValidateAPIKey(c.Request().Context(), key)
			if err != nil {
				return err
			}
			if user == nil {
				return domain.ErrInvalidAPIKey
			}
			SetActor(c, domain.ClaimsFor(user))
			return next(c)
		}
	}
}

// Authenticate accepts either a bearer access token or an API key. The
// Authorization header wins when both are sent.
func Authenticate(tokens ports.TokenService, auth ports.AuthService) echo.MiddlewareFunc {
	byToken := AccessToken(tokens)
	byKey := APIKey(auth)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		tokenNext := byToken(next)
		keyNext := byKey(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) != "" {
				return tokenNext(c)
			}
			if c.Request().Header.Get(HeaderAPIKey) != "" {
				return keyNext(c)
			}
			return domain.ErrMissingToken
		}
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials checks an {email, password} body and attaches the matching
// user. Unknown email and wrong password are indistinguishable.
func Credentials(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var req credentialsRequest
			if err := c.Bind(&req); err != nil {
				return domain.ValidationError("invalid payload")
			}
			if strings.TrimSpace(req.Email) == "" || req.Password == "" {
				return domain.ValidationError("email and password are required")
			}

			user, err := auth.ValidateUser(c.Request().Context(), req.Email, req.Password)
			if err != nil {
				return err
			}
			if user == nil {
				return domain.ErrInvalidCredentials
			}
			SetSignedIn(c, user)
			return next(c)
		}
	}
}
