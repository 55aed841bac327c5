package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the role claim carried by access tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "Admin"
	RoleTeacher UserRole = "Teacher"
	RoleStudent UserRole = "Student"
)

// Role codes used by the auth service's user records.
const (
	RoleCodeAdmin   = 1
	RoleCodeTeacher = 2
	RoleCodeStudent = 3
)

// RoleFromCode maps the auth service's numeric role code to a role name.
func RoleFromCode(code int) UserRole {
	switch code {
	case RoleCodeAdmin:
		return RoleAdmin
	case RoleCodeTeacher:
		return RoleTeacher
	case RoleCodeStudent:
		return RoleStudent
	}
	return UserRole("Unknown")
}

// JWTClaims represents the JWT payload of access tokens issued by the auth
// service. UserID is kept as the raw string claim; the workflow parses it.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor is the explicit caller identity handed to every workflow operation.
// Building it at the HTTP boundary keeps the services free of ambient
// request state. Token is the raw bearer token, forwarded on outbound calls
// so the remote services apply their own authorization.
type Actor struct {
	Subject string
	Role    UserRole
	Token   string
}

// ActorFromClaims derives an Actor from validated token claims.
func ActorFromClaims(claims *JWTClaims, token string) Actor {
	if claims == nil {
		return Actor{Token: token}
	}
	return Actor{Subject: claims.UserID, Role: claims.Role, Token: token}
}
