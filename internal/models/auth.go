package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a staff member.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and staff info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Staff       StaffInfo `json:"staff"`
	IssuedAt    time.Time `json:"issued_at"`
}

// StaffInfo describes the authenticated staff member in responses.
type StaffInfo struct {
	ID       string    `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     StaffRole `json:"role"`
}

// JWTClaims carries identity and role inside access tokens.
type JWTClaims struct {
	StaffID string    `json:"staff_id"`
	Email   string    `json:"email"`
	Role    StaffRole `json:"role"`
	jwt.RegisteredClaims
}
