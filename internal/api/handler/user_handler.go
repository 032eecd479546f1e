package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// UserParam is the path parameter naming a user.
const UserParam = "id"

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ResolveOwner maps a user id to its owner, the user itself. Ids that are
// not UUIDs cannot exist and are reported as not found.
func (h *UserHandler) ResolveOwner(ctx context.Context, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.ErrUserNotFound
	}
	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Create adds an account with any role.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  domain.UserView
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), domain.NewUser{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user.Redacted())
}

// List returns one page of users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int  false  "Page, 1-indexed"
// @Param        perPage  query     int  false  "Items per page"
// @Success      200      {object}  domain.Page[domain.UserView]
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	var q listUsersQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := h.users.ListPage(c.Request().Context(), domain.PageRequest{Page: q.Page, PerPage: q.PerPage})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Get returns one user.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.UserView
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.FindByID(c.Request().Context(), c.Param(UserParam))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update changes name, email or username.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.UserView
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), c.Param(UserParam), domain.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Redacted())
}

// Delete removes a user.
//
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.Remove(c.Request().Context(), c.Param(UserParam)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeRole sets a user's role.
//
// @Summary      Change role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  domain.UserView
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.ChangeRole(c.Request().Context(), c.Param(UserParam), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Redacted())
}
