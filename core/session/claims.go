package session

import (
	"sort"

	"github.com/dgrijalva/jwt-go"
)

// Roles
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// KnownRoles are the roles a token may carry. Only RoleTeacher is gated today.
var KnownRoles = []string{RoleAdmin, RoleStudent, RoleTeacher}

// Subject identifies the authenticated user inside the token payload.
type Subject struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims represents the claims payload the backend embeds in its JWT: `{"user": {"id", "role"}}`.
type Claims struct {
	jwt.StandardClaims
	User Subject `json:"user"`
}

func isKnownRole(roles []string, role string) bool {
	if i := sort.SearchStrings(roles, role); i < len(roles) {
		return roles[i] == role
	}
	return false
}
