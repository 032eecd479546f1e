package domain

import "time"

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
	// TokenAPIKey marks claims built from an API key rather than a JWT.
	TokenAPIKey TokenType = "api_key"
)

// Claims is the identity decoded from a verified token. Refresh tokens only
// populate Subject and Type.
type Claims struct {
	Subject   string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role,omitempty"`
	Type      TokenType `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// ClaimsFor builds request claims for a user authenticated by API key.
func ClaimsFor(u *UserView) *Claims {
	return &Claims{
		Subject:  u.ID,
		Email:    u.Email,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		Type:     TokenAPIKey,
	}
}

// TokenPair is returned by sign-in and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
