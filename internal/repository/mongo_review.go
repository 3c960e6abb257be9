package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReviewRepository implements domain.ReviewRepository
type MongoReviewRepository struct {
	collection *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	coll := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// One review per (author, target)
	ensureIndexes(ctx, coll,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "for_user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "for_user_id", Value: 1}, {Key: "date", Value: -1}}},
	)

	return &MongoReviewRepository{collection: coll}
}

func (r *MongoReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	review.ID = ""
	if review.Date.IsZero() {
		review.Date = time.Now()
	}
	res, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrReviewExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	review.ID = insertedHex(res)
	return nil
}

func (r *MongoReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	return findByID[domain.Review](ctx, r.collection, id, domain.ErrReviewNotFound)
}

func (r *MongoReviewRepository) GetByAuthorAndTarget(ctx context.Context, userID, forUserID string) (*domain.Review, error) {
	return findOne[domain.Review](ctx, r.collection, bson.M{"user_id": userID, "for_user_id": forUserID}, domain.ErrReviewNotFound)
}

func (r *MongoReviewRepository) ListForUser(ctx context.Context, forUserID string) ([]*domain.Review, error) {
	return findAll[domain.Review](ctx, r.collection, bson.M{"for_user_id": forUserID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func (r *MongoReviewRepository) ListByAuthor(ctx context.Context, userID string) ([]*domain.Review, error) {
	return findAll[domain.Review](ctx, r.collection, bson.M{"user_id": userID})
}

func (r *MongoReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	return updateByID(ctx, r.collection, review.ID, bson.M{"$set": bson.M{
		"rating":      review.Rating,
		"review_text": review.ReviewText,
		"date":        review.Date,
	}}, domain.ErrReviewNotFound)
}

func (r *MongoReviewRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrReviewNotFound)
}

// DeleteByUser removes reviews written by or about the user
func (r *MongoReviewRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"user_id": userID},
		bson.M{"for_user_id": userID},
	}})
	return err
}
