package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/api/middleware"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

type AuthHandler struct {
	auth  ports.AuthService
	users ports.UserService
}

func NewAuthHandler(auth ports.AuthService, users ports.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// SignIn issues a token pair for the user accepted by the credentials guard.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  domain.TokenPair
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	user := middleware.SignedIn(c)
	if user == nil {
		return domain.ErrInvalidCredentials
	}
	pair, err := h.auth.SignIn(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// SignUp registers a USER account.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account details"
// @Success      201   {object}  domain.UserView
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.auth.SignUp(c.Request().Context(), ports.SignUpInput{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Refresh exchanges a refresh token for a new pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  domain.TokenPair
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Refresh(c.Request().Context(), actor.Subject, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Me returns the identity carried by the access token.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Claims
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, actor)
}

// ChangePassword replaces the caller's password after verifying the current one.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.Request().Context(), actor.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// APIKey reveals the caller's API key.
//
// @Summary      Reveal API key
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiKeyResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/api-key [get]
func (h *AuthHandler) APIKey(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	key, err := h.users.RevealAPIKey(c.Request().Context(), actor.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiKeyResponse{APIKey: key})
}

// RotateAPIKey replaces the caller's API key and returns the new one.
//
// @Summary      Rotate API key
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiKeyResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/api-key/rotate [post]
func (h *AuthHandler) RotateAPIKey(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	key, err := h.users.RotateAPIKey(c.Request().Context(), actor.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apiKeyResponse{APIKey: key})
}

// APIKeyMe returns the user owning the presented API key.
//
// @Summary      Identify by API key
// @Tags         auth
// @Produce      json
// @Security     APIKeyAuth
// @Success      200  {object}  domain.UserView
// @Failure      401  {object}  errorResponse
// @Router       /auth/api-key/me [get]
func (h *AuthHandler) APIKeyMe(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	user, err := h.users.FindByID(c.Request().Context(), actor.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
