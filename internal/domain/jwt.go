package domain

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess       = "access"
	TokenTypeRefresh      = "refresh"
	TokenTypeVerification = "email_verification"
)

var (
	ErrTokenExpired = errors.New("Token has expired")
	ErrTokenInvalid = errors.New("Token is invalid")
)

// TrackHubClaims represents the JWT claims issued by the API
type TrackHubClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	IsTrainer bool   `json:"is_trainer,omitempty"`
	IsStaff   bool   `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}
