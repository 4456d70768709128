package model

import (
	"fmt"
	"time"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// UnmarshalText rejects anything outside the closed role set.
func (r *Role) UnmarshalText(text []byte) error {
	v := Role(text)
	if !v.Valid() {
		return fmt.Errorf("invalid role: %q (valid options: admin, user)", string(text))
	}
	*r = v
	return nil
}

// User represents a user in the system
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserUpdate carries the fields of a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil && u.Role == nil
}

// RegisterRequest is the body of POST /users/register
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,max=255,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest is the body of POST /users/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest is the body of POST /users/refresh-token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UpdateUserRequest is used for partial user updates
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Email    *string `json:"email,omitempty" binding:"omitempty,max=255,email"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=6,max=72"`
	Role     *Role   `json:"role,omitempty" binding:"omitempty,oneof=admin user"`
}
