package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidRefreshToken = errors.New("Invalid refresh token.")
	ErrForeignRefreshToken = errors.New("This refresh token does not belong to the current user.")
)

// RefreshToken is a stored refresh token. Only the SHA-256 hash of the raw
// token is persisted; revoked tokens stay until they expire (blacklist).
type RefreshToken struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	TokenHash string    `bson:"token_hash" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UserAgent string    `bson:"user_agent" json:"user_agent"`
	IPAddress string    `bson:"ip_address" json:"ip_address"`
	Revoked   bool      `bson:"revoked" json:"revoked"`
	RevokedAt time.Time `bson:"revoked_at,omitempty" json:"-"`
}

// IsValid checks the token is neither expired nor blacklisted
func (r *RefreshToken) IsValid(now time.Time) bool {
	return now.Before(r.ExpiresAt) && !r.Revoked
}

// RefreshTokenRepository stores refresh tokens and their blacklist state
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	// FindByHash returns ErrInvalidRefreshToken when no token matches
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)
	RevokeByHash(ctx context.Context, hash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
