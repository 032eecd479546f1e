package domain

import (
	"strings"
	"time"
)

// Role is the privilege level carried by a user and its access tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the full identity record, secrets included. It never crosses the
// HTTP boundary; use Redacted for anything sent to a client.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	APIKeySecret string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserView is a User without password hash and API key secret.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Redacted strips the secrets from u.
func (u *User) Redacted() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUser carries the data needed to create an account. APIKey is normally
// empty and generated by the directory; seeding supplies a fixed one.
type NewUser struct {
	Email    string
	Username string
	Name     string
	Password string
	Role     Role
	APIKey   string
}

// UserPatch holds the fields a user may change about themselves. Nil means
// "leave as is".
type UserPatch struct {
	Name     *string
	Email    *string
	Username *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Username == nil
}

// NormalizeEmail is the single place the email case policy lives: emails
// are compared case-insensitively, so they are stored lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims surrounding space; usernames stay case-sensitive.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
