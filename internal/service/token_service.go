package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/domain"
)

const refreshTokenBytes = 32

// TokenService issues signed access tokens and opaque refresh tokens.
// Refresh tokens rotate on every use; the used one is blacklisted.
type TokenService struct {
	cfg    config.JWTConfig
	tokens domain.RefreshTokenRepository
	users  domain.UserRepository
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig, tokens domain.RefreshTokenRepository, users domain.UserRepository) *TokenService {
	return &TokenService{cfg: cfg, tokens: tokens, users: users, now: time.Now}
}

// TokenPair is the login and refresh response body
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	UserID    string `json:"user_id"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *TokenService) GenerateTokenPair(ctx context.Context, user *domain.User, userAgent, ipAddress string) (*TokenPair, error) {
	access, err := s.sign(user, domain.TokenTypeAccess, s.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	raw, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	stored := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().Add(s.cfg.RefreshTokenExpiry),
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := s.tokens.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		Access:    access,
		Refresh:   raw,
		UserID:    user.ID,
		ExpiresIn: int64(s.cfg.AccessTokenExpiry / time.Second),
	}, nil
}

// RefreshAccessToken trades a valid refresh token for a new pair
func (s *TokenService) RefreshAccessToken(ctx context.Context, refreshToken, userAgent, ipAddress string) (*TokenPair, error) {
	stored, err := s.lookupValid(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, domain.ErrInvalidRefreshToken
	case err != nil:
		return nil, fmt.Errorf("load token owner: %w", err)
	case !user.IsActive:
		return nil, domain.ErrInvalidRefreshToken
	}

	if err := s.tokens.RevokeByHash(ctx, stored.TokenHash); err != nil {
		return nil, err
	}
	return s.GenerateTokenPair(ctx, user, userAgent, ipAddress)
}

// RevokeRefreshToken blacklists a single refresh token on logout
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	stored, err := s.lookupValid(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.tokens.RevokeByHash(ctx, stored.TokenHash)
}

// CheckOwnership verifies refreshToken is valid and was issued to userID
func (s *TokenService) CheckOwnership(ctx context.Context, refreshToken, userID string) error {
	stored, err := s.lookupValid(ctx, refreshToken)
	if err != nil {
		return err
	}
	if stored.UserID != userID {
		return domain.ErrForeignRefreshToken
	}
	return nil
}

func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllByUserID(ctx, userID)
}

func (s *TokenService) DeleteUserTokens(ctx context.Context, userID string) error {
	return s.tokens.DeleteByUserID(ctx, userID)
}

// PurgeExpired is run by the token purge job
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}

func (s *TokenService) lookupValid(ctx context.Context, refreshToken string) (*domain.RefreshToken, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}
	stored, err := s.tokens.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if !stored.IsValid(s.now()) {
		return nil, domain.ErrInvalidRefreshToken
	}
	return stored, nil
}

func (s *TokenService) ParseAccessToken(tokenString string) (*domain.TrackHubClaims, error) {
	return ParseToken(tokenString, s.cfg.Secret, domain.TokenTypeAccess)
}

// GenerateVerificationToken signs the token mailed to confirm an address
func (s *TokenService) GenerateVerificationToken(user *domain.User) (string, error) {
	return s.sign(user, domain.TokenTypeVerification, s.cfg.EmailTokenExpiry)
}

func (s *TokenService) ParseVerificationToken(tokenString string) (*domain.TrackHubClaims, error) {
	return ParseToken(tokenString, s.cfg.Secret, domain.TokenTypeVerification)
}

// ParseToken checks signature, expiry and type of a token issued by the API.
// Expiry maps to domain.ErrTokenExpired; every other failure maps to
// domain.ErrTokenInvalid.
func ParseToken(tokenString, secret, tokenType string) (*domain.TrackHubClaims, error) {
	claims := &domain.TrackHubClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, domain.ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if claims.TokenType != tokenType || claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) sign(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := domain.TrackHubClaims{
		UserID:    user.ID,
		TokenType: tokenType,
		IsTrainer: user.IsTrainer,
		IsStaff:   user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// hashToken is the lookup key of a refresh token; raw tokens are never stored
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
