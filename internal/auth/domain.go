package auth

import (
	"errors"
	"strings"
)

// Roles known to the service. Only RoleCardOwner grants access to cash cards.
const (
	RoleCardOwner = "card-owner"
	RoleNonOwner  = "non-owner"
)

// ErrInvalidCredentials indicates an unknown username or a wrong secret.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Principal is an authenticated actor.
type Principal struct {
	Username string
	Role     string
}

// HasRole reports whether the principal holds role, ignoring case.
func (p Principal) HasRole(role string) bool {
	return normalizeRole(p.Role) == normalizeRole(role)
}

// Record is one provisioned credential.
type Record struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
