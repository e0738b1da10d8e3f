package models

import (
	"fmt"
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// ParseUserRole maps free text onto the closed role set. Unknown values are an error,
// never a silent fallback.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case UserRoleUser:
		return UserRoleUser, nil
	case UserRoleAdmin:
		return UserRoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r UserRole) Valid() bool {
	_, err := ParseUserRole(string(r))
	return err == nil
}

type AuthProvider string

const (
	AuthProviderLocal    AuthProvider = "local"
	AuthProviderExternal AuthProvider = "external"
)

type User struct {
	ID                  string
	FullName            string
	Username            *string
	Email               string
	PasswordHash        *string
	Role                UserRole
	Provider            AuthProvider
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasPassword reports whether the account can authenticate with a local password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u User) UsernameOrEmpty() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}
