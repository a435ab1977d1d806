package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole mirrors the roles issued by the backend.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleHOD     UserRole = "HOD"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// JWTClaims represents the payload of a backend-issued access token.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"name"`
	jwt.RegisteredClaims
}

// Identity returns the user id, falling back to the registered subject.
func (c *JWTClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Session is the acting identity handed to every component. It is built once
// per request from validated claims and never looked up ambiently.
type Session struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	Token    string   `json:"-"`
}

// SessionFromClaims builds a Session carrying the raw token for backend calls.
func SessionFromClaims(claims *JWTClaims, token string) Session {
	return Session{
		UserID:   claims.Identity(),
		Role:     claims.Role,
		FullName: claims.FullName,
		Token:    token,
	}
}
