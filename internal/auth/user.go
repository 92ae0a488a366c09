package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	// Allowed to create and Delete DB
	RoleSuperuser Role = "superuser"
	// Read / Write on allowed DB
	RoleUser Role = "user"
	// Readonly on allowed DB
	RoleGuest Role = "guest"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSuperuser, RoleUser, RoleGuest:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

type User struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Role     Role     `json:"role"`
	AccessDB []string `json:"access_db"`
}

// NewUser hashes password and returns a user with no database access
func NewUser(username, password string, role Role) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("empty username")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &User{
		Username: username,
		Password: string(hash),
		Role:     role,
		AccessDB: []string{},
	}, nil
}

// Basic password hashing - might be fun to implement from scratch later
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

func CheckPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
