package domain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
)

var (
	ErrUserNotFound       = errors.New("Not found such account")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrIncorrectPassword  = errors.New("Password is incorrect")
	ErrAccountNotPublic   = errors.New("account is not public")
	ErrEmailAlreadyVerify = errors.New("Email уже подтвержден.")
	ErrEmailThrottled     = errors.New("verification e-mail was sent recently, try again later")
	ErrSocialLoginOff     = errors.New("social login is not configured")
)

// UserRating is the aggregate of reviews received by a user
type UserRating struct {
	Rating   float64 `bson:"rating" json:"rating"`
	IsActive bool    `bson:"is_rating_active" json:"is_rating_active"`
}

// User is an email-keyed account. Every user owns a client profile and a
// trainer profile; the trainer profile is active only for trainers.
type User struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	Email        string     `bson:"email" json:"email"`
	FirstName    string     `bson:"first_name" json:"first_name"`
	LastName     string     `bson:"last_name" json:"last_name"`
	PasswordHash string     `bson:"password_hash,omitempty" json:"-"`
	FirebaseUID  string     `bson:"firebase_uid,omitempty" json:"-"`
	Avatar       string     `bson:"avatar,omitempty" json:"-"` // object key
	IsActive     bool       `bson:"is_active" json:"is_active"`
	IsStaff      bool       `bson:"is_staff" json:"-"`
	IsTrainer    bool       `bson:"is_trainer" json:"is_trainer"`
	IsVerified   bool       `bson:"is_verified" json:"is_verified"`
	IsPublic     bool       `bson:"is_public" json:"is_public"`
	Rating       UserRating `bson:"rating" json:"user_rating"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// Initial returns the upper-cased first letter of the first name, or "U"
func (u *User) Initial() string {
	for _, r := range strings.TrimSpace(u.FirstName) {
		return string(unicode.ToUpper(r))
	}
	return "U"
}

// UserRepository defines operations for managing users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateAvatar(ctx context.Context, userID, key string) error
	UpdateRating(ctx context.Context, userID string, rating UserRating) error
	SetVerified(ctx context.Context, userID string) error
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// NormalizeEmail trims the address and lower-cases its domain part
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// ValidatePassword checks the password policy and reports every violation
func ValidatePassword(password string) *ValidationError {
	v := &ValidationError{}
	if len([]rune(password)) < 8 {
		v.Add("password", "Password must be at least 8 characters long.")
	}

	var upper, lower, digit, space bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			space = true
		}
	}
	if !upper {
		v.Add("password", "Password must contain at least one uppercase letter.")
	}
	if !lower {
		v.Add("password", "Password must contain at least one lowercase letter.")
	}
	if !digit {
		v.Add("password", "Password must contain at least one digit.")
	}
	if space {
		v.Add("password", "Password must not contain spaces.")
	}
	return v
}
