package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mansoorceksport/trackhub/internal/domain"
)

// ReviewService manages reviews and keeps the reviewed user's rating current
type ReviewService struct {
	reviewRepo domain.ReviewRepository
	userRepo   domain.UserRepository
	events     domain.EventPublisher
	logger     *slog.Logger
}

func NewReviewService(reviewRepo domain.ReviewRepository, userRepo domain.UserRepository, events domain.EventPublisher, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		events:     events,
		logger:     logger,
	}
}

// ReviewInput is the editable part of a review
type ReviewInput struct {
	ForUserID  string
	Rating     int
	ReviewText string
}

func validateReview(in ReviewInput) error {
	v := &domain.ValidationError{}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		v.Add("rating", fmt.Sprintf("Ensure this value is between %d and %d.", domain.MinRating, domain.MaxRating))
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.ReviewText)) > domain.MaxReviewTextLength {
		v.Add("review_text", fmt.Sprintf("Ensure this field has no more than %d characters.", domain.MaxReviewTextLength))
	}
	return v.OrNil()
}

func (s *ReviewService) Create(ctx context.Context, authorID string, in ReviewInput) (*domain.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}
	if in.ForUserID == authorID {
		return nil, domain.ErrSelfReview
	}
	if _, err := s.userRepo.GetByID(ctx, in.ForUserID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		UserID:     authorID,
		ForUserID:  in.ForUserID,
		Rating:     in.Rating,
		ReviewText: strings.TrimSpace(in.ReviewText),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	if err := s.Recalculate(ctx, review.ForUserID); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, domain.Event{
		Type:       domain.EventReviewCreated,
		Key:        review.ForUserID,
		ActorID:    authorID,
		Payload:    map[string]any{"review_id": review.ID, "rating": review.Rating},
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "type", domain.EventReviewCreated, "error", err)
	}
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	return s.reviewRepo.GetByID(ctx, id)
}

// ListForUser returns the reviews a user received, newest first
func (s *ReviewService) ListForUser(ctx context.Context, forUserID string) ([]*domain.Review, error) {
	return s.reviewRepo.ListForUser(ctx, forUserID)
}

// Update changes rating and text; only the author may do it
func (s *ReviewService) Update(ctx context.Context, authorID, id string, in ReviewInput) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != authorID {
		return nil, domain.ErrReviewNotAuthor
	}
	in.ForUserID = review.ForUserID
	if err := validateReview(in); err != nil {
		return nil, err
	}

	review.Rating = in.Rating
	review.ReviewText = strings.TrimSpace(in.ReviewText)
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, s.Recalculate(ctx, review.ForUserID)
}

func (s *ReviewService) Delete(ctx context.Context, authorID, id string) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != authorID {
		return domain.ErrReviewNotAuthor
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.Recalculate(ctx, review.ForUserID)
}

// Recalculate stores the average of the reviews a user received
func (s *ReviewService) Recalculate(ctx context.Context, userID string) error {
	reviews, err := s.reviewRepo.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateRating(ctx, userID, domain.AggregateRating(reviews))
}

// RecalculateAll refreshes the rating of every user and returns how many
// were updated
func (s *ReviewService) RecalculateAll(ctx context.Context) (int, error) {
	ids, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := s.Recalculate(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "rating refresh failed", "user_id", id, "error", err)
			continue
		}
		n++
	}
	return n, nil
}

// DeleteUserReviews removes reviews written by or about userID and
// refreshes the ratings of the users the deleted author had reviewed
func (s *ReviewService) DeleteUserReviews(ctx context.Context, userID string) error {
	written, err := s.reviewRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	for _, r := range written {
		if r.ForUserID == userID {
			continue
		}
		if err := s.Recalculate(ctx, r.ForUserID); err != nil {
			return err
		}
	}
	return nil
}
