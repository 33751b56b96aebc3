package models

import "time"

// Company is the organisation a user belongs to.
type Company struct {
	Identity
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// User is the authenticated identity returned by login, signup and /users/me.
// Tags are the access tags matched against document policies server-side.
type User struct {
	Identity
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          string   `json:"role,omitempty"`
	Company       *Company `json:"company,omitempty"`
	UserGroup     *string  `json:"userGroup,omitempty"`
	AuthProvider  string   `json:"authProvider,omitempty"`
	GoogleID      *string  `json:"googleId,omitempty"`
	EmailVerified bool     `json:"emailVerified"`
	IsActive      bool     `json:"isActive"`
	Tags          []string `json:"tags"`
}

// Valid reports whether the object looks like a user record rather than some
// other JSON object.
func (u *User) Valid() bool {
	return u != nil && (u.Key() != "" || u.Email != "")
}

// LoginRequest is the body posted to /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignupRequest is the body posted to /auth/register.
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResult is the user/token pair carried in data[0] of an auth response.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
