package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// FirebaseAuthClient defines the interface for Firebase Auth operations
// This allows mocking for tests
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthService handles password and social login
type AuthService struct {
	userRepo   domain.UserRepository
	accounts   *AccountService
	tokens     *TokenService
	authClient FirebaseAuthClient
}

// NewAuthService creates a new auth service. authClient may be nil when
// social login is not configured.
func NewAuthService(
	userRepo domain.UserRepository,
	accounts *AccountService,
	tokens *TokenService,
	authClient FirebaseAuthClient,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		accounts:   accounts,
		tokens:     tokens,
		authClient: authClient,
	}
}

// ClientInfo identifies the device a token pair is issued to
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Login checks email and password and issues a token pair
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserNotFound
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrIncorrectPassword
	}
	return s.tokens.GenerateTokenPair(ctx, user, client.UserAgent, client.IPAddress)
}

// SocialLoginResponse contains the token pair and whether the account is new
type SocialLoginResponse struct {
	*TokenPair
	IsNewUser bool `json:"is_new_user"`
}

// FirebaseLogin verifies a Firebase ID token and logs the user in. Unknown
// uids are linked to an existing account by email or get a new account.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string, client ClientInfo) (*SocialLoginResponse, error) {
	if s.authClient == nil {
		return nil, domain.ErrSocialLoginOff
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, domain.NewValidationError("token", "Firebase token has no email.")
	}
	email = domain.NormalizeEmail(email)
	name, _ := token.Claims["name"].(string)

	user, isNew, err := s.findOrCreate(ctx, token.UID, email, name)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserNotFound
	}

	pair, err := s.tokens.GenerateTokenPair(ctx, user, client.UserAgent, client.IPAddress)
	if err != nil {
		return nil, err
	}
	return &SocialLoginResponse{TokenPair: pair, IsNewUser: isNew}, nil
}

func (s *AuthService) findOrCreate(ctx context.Context, uid, email, name string) (*domain.User, bool, error) {
	user, err := s.userRepo.GetByFirebaseUID(ctx, uid)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	// Link a password account registered with the same address
	user, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		user.FirebaseUID = uid
		user.IsVerified = true
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	user = &domain.User{
		Email:       email,
		FirstName:   first,
		LastName:    strings.TrimSpace(last),
		FirebaseUID: uid,
		IsActive:    true,
		IsVerified:  true,
		IsPublic:    true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	if err := s.accounts.provision(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}
