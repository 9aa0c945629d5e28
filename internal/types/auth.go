package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserAuth represents the core user entity as persisted by the user store.
type UserAuth struct {
	ID        string    `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"` // Unique identifier (UUID).
	Email     string    `json:"email" example:"alice@example.com"`                 // Lowercased, unique.
	Name      string    `json:"name" example:"Alice"`                              // Display name, trimmed.
	Password  string    `json:"-"`                                                 // Hashed password (never exposed).
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View strips the password hash.
func (u *UserAuth) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Identity returns the subset of the record embedded in a token.
func (u *UserAuth) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

// UserView is the public representation of a user. It has no password field.
type UserView struct {
	ID        string    `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"`
	Email     string    `json:"email" example:"alice@example.com"`
	Name      string    `json:"name" example:"Alice"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is what a token asserts about its holder.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// Credentials are the raw values a caller submits at login. Never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Claims are embedded in every issued token and trusted as-is on verification.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// AuthResult is returned from register and login.
type AuthResult struct {
	User  *UserView `json:"user"`
	Token string    `json:"token" example:"eyJhbGciOiJI..."`
}

// CurrentUserResponse wraps the authenticated user's view.
type CurrentUserResponse struct {
	User *UserView `json:"user"`
}

// Response is the generic envelope for simple success/error messages.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
