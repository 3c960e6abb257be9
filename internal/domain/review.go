package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrReviewExists    = errors.New("you have already reviewed this user")
	ErrSelfReview      = errors.New("you can not review yourself")
	ErrReviewNotAuthor = errors.New("You are not authorized to edit this review.")
)

const (
	MinRating = 0
	MaxRating = 5

	MaxReviewTextLength = 1000
)

// Review is a rating left by one user for another
type Review struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	ForUserID  string    `bson:"for_user_id" json:"for_user_id"`
	Rating     int       `bson:"rating" json:"rating"`
	ReviewText string    `bson:"review_text" json:"review_text"`
	Date       time.Time `bson:"date" json:"date"`
}

type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	GetByAuthorAndTarget(ctx context.Context, userID, forUserID string) (*Review, error)
	ListForUser(ctx context.Context, forUserID string) ([]*Review, error)
	ListByAuthor(ctx context.Context, userID string) ([]*Review, error)
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// AggregateRating averages the ratings of reviews, rounded half to even to
// one decimal. The rating is inactive when there are no reviews.
func AggregateRating(reviews []*Review) UserRating {
	if len(reviews) == 0 {
		return UserRating{Rating: 0, IsActive: false}
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return UserRating{Rating: RoundTenths(avg), IsActive: true}
}

// RoundTenths rounds x to one decimal place using banker's rounding
func RoundTenths(x float64) float64 {
	return math.RoundToEven(x*10) / 10
}
