package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleSecretary  UserRole = "SECRETARY"
	RoleTeacher    UserRole = "TEACHER"
)

// JWTClaims are issued by the account service and only verified here.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	SchoolID string   `json:"school_id"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
