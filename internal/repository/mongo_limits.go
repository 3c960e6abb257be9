package repository

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLimitsRepository stores per-user content limits keyed by user id
type MongoLimitsRepository struct {
	collection *mongo.Collection
}

func NewMongoLimitsRepository(db *mongo.Database) *MongoLimitsRepository {
	return &MongoLimitsRepository{collection: db.Collection("fitness_limits")}
}

func (r *MongoLimitsRepository) Get(ctx context.Context, userID string) (*domain.FitnessLimits, error) {
	return findOne[domain.FitnessLimits](ctx, r.collection, bson.M{"_id": userID}, domain.ErrNotFound)
}

func (r *MongoLimitsRepository) Upsert(ctx context.Context, limits *domain.FitnessLimits) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": limits.UserID}, limits, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save limits: %w", err)
	}
	return nil
}

func (r *MongoLimitsRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
