package models

import (
	"strings"

	"github.com/google/uuid"
)

// Role decides what a user may do and which notifications they see.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// userNamespace seeds the name-based ids handed out at login.
var userNamespace = uuid.MustParse("6f1c1d3e-8c1a-4f55-9c53-6a2f4b0e9d21")

// User is not persisted; it is rebuilt from the role choice on every login.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// NewUser derives a stable id from role and display name so the same person
// receives their user-targeted notifications across logins.
func NewUser(name string, role Role) User {
	name = strings.TrimSpace(name)
	key := string(role) + ":" + strings.ToLower(name)
	return User{
		ID:   uuid.NewSHA1(userNamespace, []byte(key)).String(),
		Name: name,
		Role: role,
	}
}
