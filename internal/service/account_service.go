package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mansoorceksport/trackhub/internal/avatar"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	avatarFolder            = "avatars"
	verificationMailTTL     = time.Minute
	verificationMailSubject = "Подтверждение регистрации"
)

// AccountDeps groups the collaborators of AccountService
type AccountDeps struct {
	Users       domain.UserRepository
	Clients     domain.ClientRepository
	Trainers    domain.TrainerRepository
	Reviews     *ReviewService
	Experiences domain.ExperienceRepository
	Gyms        domain.GymRepository
	Links       domain.TrainerOfClientRepository
	Sessions    domain.WorkoutSessionRepository
	Exercises   domain.ExerciseRepository
	Workouts    domain.WorkoutRepository
	Plans       domain.PlanRepository
	Limits      domain.LimitsRepository
	Tokens      *TokenService
	Media       domain.MediaStorage
	Mailer      domain.Mailer
	Events      domain.EventPublisher
	Cache       domain.CacheRepository
	Logger      *slog.Logger

	MaxAvatarMB    int64
	VerifyLinkBase string
}

// AccountService manages user accounts and everything hanging off them
type AccountService struct {
	AccountDeps
	avatarKind domain.MediaKind
}

func NewAccountService(deps AccountDeps) *AccountService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &AccountService{
		AccountDeps: deps,
		avatarKind:  domain.ImageMedia(avatarFolder, deps.MaxAvatarMB),
	}
}

// RegisterInput is the payload of a new account
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsTrainer bool
}

// Register creates the account with its client and trainer profiles
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidatePassword(in.Password).OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		IsActive:     true,
		IsTrainer:    in.IsTrainer,
		IsPublic:     true,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.provision(ctx, user); err != nil {
		return nil, err
	}

	if err := s.SendVerification(ctx, user.ID); err != nil {
		s.Logger.WarnContext(ctx, "verification mail failed", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// provision creates the profiles and default avatar of a new user
func (s *AccountService) provision(ctx context.Context, user *domain.User) error {
	if err := s.Clients.Create(ctx, &domain.Client{UserID: user.ID}); err != nil {
		return fmt.Errorf("failed to create client profile: %w", err)
	}
	if err := s.Trainers.Create(ctx, domain.NewTrainerProfile(user)); err != nil {
		return fmt.Errorf("failed to create trainer profile: %w", err)
	}

	if err := s.setDefaultAvatar(ctx, user); err != nil {
		s.Logger.WarnContext(ctx, "default avatar failed", "user_id", user.ID, "error", err)
	}

	if err := s.Events.Publish(ctx, domain.Event{
		Type:       domain.EventUserRegistered,
		Key:        user.ID,
		ActorID:    user.ID,
		Payload:    map[string]any{"is_trainer": user.IsTrainer},
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.Logger.WarnContext(ctx, "event publish failed", "type", domain.EventUserRegistered, "error", err)
	}
	return nil
}

func (s *AccountService) setDefaultAvatar(ctx context.Context, user *domain.User) error {
	data, err := avatar.Render(user.ID, user.Initial())
	if err != nil {
		return err
	}
	key, err := s.Media.Upload(ctx, avatarFolder+"/"+avatar.FileName(user.ID), data, avatar.ContentType)
	if err != nil {
		return err
	}
	if err := s.Users.UpdateAvatar(ctx, user.ID, key); err != nil {
		return err
	}
	user.Avatar = key
	return nil
}

func (s *AccountService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.Users.GetByID(ctx, userID)
}

// GetPublic returns another user's account when it is public
func (s *AccountService) GetPublic(ctx context.Context, viewerID, userID string) (*domain.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ID != viewerID && !user.IsPublic {
		return nil, domain.ErrAccountNotPublic
	}
	return user, nil
}

// AvatarURL returns the public link of the user's avatar
func (s *AccountService) AvatarURL(user *domain.User) string {
	return s.Media.URL(user.Avatar)
}

// UpdateInput holds a partial account update. Nil fields are left alone.
type UpdateInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	IsPublic  *bool
	IsTrainer *bool
}

func (s *AccountService) Update(ctx context.Context, userID string, in UpdateInput) (*domain.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	namesChanged := false
	if in.Email != nil {
		user.Email = domain.NormalizeEmail(*in.Email)
	}
	if in.Password != nil {
		if err := domain.ValidatePassword(*in.Password).OrNil(); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if in.FirstName != nil {
		namesChanged = namesChanged || user.FirstName != *in.FirstName
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		namesChanged = namesChanged || user.LastName != *in.LastName
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.IsPublic != nil {
		user.IsPublic = *in.IsPublic
	}
	trainerToggled := in.IsTrainer != nil && *in.IsTrainer != user.IsTrainer
	if in.IsTrainer != nil {
		user.IsTrainer = *in.IsTrainer
	}

	if err := s.Users.Update(ctx, user); err != nil {
		return nil, err
	}

	if trainerToggled {
		if err := s.Trainers.SetActive(ctx, user.ID, user.IsTrainer); err != nil {
			return nil, err
		}
	} else if namesChanged {
		_ = s.Cache.DeleteByPattern(ctx, domain.TrainerSearchCachePrefix+"*")
	}
	return user, nil
}

// UploadAvatar replaces the user's avatar, removing the previous object
func (s *AccountService) UploadAvatar(ctx context.Context, userID string, data []byte, contentType string) (*domain.User, error) {
	ext, err := s.avatarKind.Check(contentType, int64(len(data)))
	if err != nil {
		return nil, err
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := s.Media.Upload(ctx, s.avatarKind.Key(user.ID+"_"+newID(), ext), data, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.Users.UpdateAvatar(ctx, user.ID, key); err != nil {
		_ = s.Media.Delete(ctx, key)
		return nil, err
	}

	if user.Avatar != "" && user.Avatar != key {
		if err := s.Media.Delete(ctx, user.Avatar); err != nil {
			s.Logger.WarnContext(ctx, "old avatar not deleted", "key", user.Avatar, "error", err)
		}
	}
	user.Avatar = key
	_ = s.Cache.DeleteByPattern(ctx, domain.TrainerSearchCachePrefix+"*")
	return user, nil
}

// DeleteAvatar removes the avatar object and clears the reference
func (s *AccountService) DeleteAvatar(ctx context.Context, userID string) error {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Avatar == "" {
		return nil
	}
	if err := s.Media.Delete(ctx, user.Avatar); err != nil {
		return err
	}
	_ = s.Cache.DeleteByPattern(ctx, domain.TrainerSearchCachePrefix+"*")
	return s.Users.UpdateAvatar(ctx, user.ID, "")
}

// Delete removes the account after checking the refresh token belongs to the
// caller. Authored content is kept but detached from the user.
func (s *AccountService) Delete(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return domain.NewValidationError("refresh", "Refresh token is required.")
	}
	if err := s.Tokens.CheckOwnership(ctx, refreshToken, userID); err != nil {
		return err
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if trainer, err := s.Trainers.GetByUserID(ctx, userID); err == nil {
		if err := s.deleteTrainerData(ctx, trainer.ID); err != nil {
			return err
		}
		if err := s.Trainers.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
	} else if !errors.Is(err, domain.ErrTrainerNotFound) {
		return err
	}

	if client, err := s.Clients.GetByUserID(ctx, userID); err == nil {
		if err := s.Links.DeleteByClient(ctx, client.ID); err != nil {
			return err
		}
		if err := s.Sessions.DeleteByClient(ctx, client.ID); err != nil {
			return err
		}
		if err := s.Clients.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
	} else if !errors.Is(err, domain.ErrClientNotFound) {
		return err
	}

	if err := s.Reviews.DeleteUserReviews(ctx, userID); err != nil {
		return err
	}

	for _, repo := range []domain.LifecycleRepository{s.Exercises, s.Workouts, s.Plans} {
		if err := repo.RemoveUserFromShares(ctx, userID); err != nil {
			return err
		}
		if err := repo.DetachCreator(ctx, userID); err != nil {
			return err
		}
	}
	if n, err := purgeOrphanExercises(ctx, s.Exercises, s.Media, s.Logger); err != nil {
		return err
	} else if n > 0 {
		s.Logger.InfoContext(ctx, "orphan exercises purged", "count", n)
	}

	if err := s.Limits.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.Tokens.DeleteUserTokens(ctx, userID); err != nil {
		return err
	}
	if user.Avatar != "" {
		if err := s.Media.Delete(ctx, user.Avatar); err != nil {
			s.Logger.WarnContext(ctx, "avatar not deleted", "key", user.Avatar, "error", err)
		}
	}
	return s.Users.Delete(ctx, userID)
}

func (s *AccountService) deleteTrainerData(ctx context.Context, trainerID string) error {
	if err := s.Experiences.DeleteByTrainer(ctx, trainerID); err != nil {
		return err
	}
	if err := s.Gyms.DeleteByTrainer(ctx, trainerID); err != nil {
		return err
	}
	if err := s.Links.DeleteByTrainer(ctx, trainerID); err != nil {
		return err
	}
	return s.Sessions.DeleteByTrainer(ctx, trainerID)
}

// SendVerification mails a link confirming the user's address. Resends are
// throttled per user.
func (s *AccountService) SendVerification(ctx context.Context, userID string) error {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return domain.ErrEmailAlreadyVerify
	}

	if ok, err := s.Cache.SetNX(ctx, domain.EmailThrottleCachePrefix+user.ID, time.Now().Unix(), verificationMailTTL); err == nil && !ok {
		return domain.ErrEmailThrottled
	}

	token, err := s.Tokens.GenerateVerificationToken(user)
	if err != nil {
		return fmt.Errorf("failed to sign verification token: %w", err)
	}
	body := fmt.Sprintf("Подтвердите ваш email:\n\n%s%s\n\nСсылка действительна 24 часа.", s.VerifyLinkBase, token)
	if err := s.Mailer.Send(ctx, user.Email, verificationMailSubject, body); err != nil {
		_ = s.Cache.Delete(ctx, domain.EmailThrottleCachePrefix+user.ID)
		return err
	}
	return nil
}

// VerifyEmail marks the address of the token's user as verified
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.NewValidationError("token", "Токен обязателен")
	}
	claims, err := s.Tokens.ParseVerificationToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return domain.NewValidationError("token", "Срок действия токена истёк.")
		}
		return domain.NewValidationError("token", "Неверный токен.")
	}

	user, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return domain.NewValidationError("", domain.ErrEmailAlreadyVerify.Error())
	}
	return s.Users.SetVerified(ctx, user.ID)
}
