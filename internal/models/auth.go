package models

import "github.com/golang-jwt/jwt/v5"

// UserRole mirrors the roles issued by the school API.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims is the payload of an admin access token.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Owner identifies the admin a console session belongs to.
func (c *JWTClaims) Owner() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
