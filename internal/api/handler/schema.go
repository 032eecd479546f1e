package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

type signUpRequest struct {
	Email    string `json:"email"    validate:"required,email,max=150"`
	Username string `json:"username" validate:"required,min=4,max=16"`
	Name     string `json:"name"     validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// signInRequest documents the body read by the credentials guard.
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=72"`
}

type apiKeyResponse struct {
	APIKey string `json:"apiKey"`
}

type createUserRequest struct {
	signUpRequest
	Role string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

type updateUserRequest struct {
	Email    *string `json:"email"    validate:"omitempty,email,max=150"`
	Username *string `json:"username" validate:"omitempty,min=4,max=16"`
	Name     *string `json:"name"     validate:"omitempty,min=3,max=100"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

type listUsersQuery struct {
	Page    int `query:"page"    validate:"gte=0"`
	PerPage int `query:"perPage" validate:"gte=0"`
}
