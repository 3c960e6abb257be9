package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTrainerRepository implements domain.TrainerRepository
type MongoTrainerRepository struct {
	collection *mongo.Collection
}

func NewMongoTrainerRepository(db *mongo.Database) *MongoTrainerRepository {
	coll := db.Collection("trainers")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ensureIndexes(ctx, coll,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "is_public", Value: 1}}},
	)

	return &MongoTrainerRepository{collection: coll}
}

func (r *MongoTrainerRepository) Create(ctx context.Context, trainer *domain.Trainer) error {
	now := time.Now()
	trainer.ID = ""
	trainer.CreatedAt = now
	trainer.UpdatedAt = now
	if trainer.Weekends == nil {
		trainer.Weekends = []domain.Weekday{}
	}
	if trainer.Breaks == nil {
		trainer.Breaks = []domain.Break{}
	}
	if trainer.Holidays == nil {
		trainer.Holidays = []domain.Holiday{}
	}

	res, err := r.collection.InsertOne(ctx, trainer)
	if err != nil {
		return fmt.Errorf("failed to create trainer: %w", err)
	}
	trainer.ID = insertedHex(res)
	return nil
}

func (r *MongoTrainerRepository) GetByID(ctx context.Context, id string) (*domain.Trainer, error) {
	return findByID[domain.Trainer](ctx, r.collection, id, domain.ErrTrainerNotFound)
}

func (r *MongoTrainerRepository) GetByUserID(ctx context.Context, userID string) (*domain.Trainer, error) {
	return findOne[domain.Trainer](ctx, r.collection, bson.M{"user_id": userID}, domain.ErrTrainerNotFound)
}

func (r *MongoTrainerRepository) Update(ctx context.Context, trainer *domain.Trainer) error {
	trainer.UpdatedAt = time.Now()
	doc := *trainer
	doc.ID = ""
	return replaceByID(ctx, r.collection, trainer.ID, doc, domain.ErrTrainerNotFound)
}

func (r *MongoTrainerRepository) SetActive(ctx context.Context, userID string, active bool) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update trainer: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTrainerNotFound
	}
	return nil
}

func (r *MongoTrainerRepository) UpdateWholeExperience(ctx context.Context, trainerID string, years float64) error {
	return updateByID(ctx, r.collection, trainerID,
		bson.M{"$set": bson.M{"whole_experience": years}}, domain.ErrTrainerNotFound)
}

// Search joins active public trainers with their owners. Text ranking is
// done by the caller.
func (r *MongoTrainerRepository) Search(ctx context.Context, filter domain.TrainerFilter) ([]*domain.TrainerWithUser, error) {
	match := bson.M{"is_active": true, "is_public": true}

	price := bson.M{}
	if filter.MinPricePerHour != nil {
		price["$gte"] = *filter.MinPricePerHour
	}
	if filter.MaxPricePerHour != nil {
		price["$lte"] = *filter.MaxPricePerHour
	}
	if len(price) > 0 {
		match["price_per_hour"] = price
	}
	if filter.MinExperience != nil {
		match["whole_experience"] = bson.M{"$gte": *filter.MinExperience}
	}
	if filter.IsMale != nil {
		match["is_male"] = *filter.IsMale
	}
	if filter.Address != "" {
		match["address"] = bson.M{"$regex": regexp.QuoteMeta(filter.Address), "$options": "i"}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{"owner_oid": bson.M{"$toObjectId": "$user_id"}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "owner_oid",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		{{Key: "$unwind", Value: "$owner"}},
		{{Key: "$match", Value: bson.M{"owner.is_active": true}}},
		{{Key: "$addFields", Value: bson.M{
			"first_name": "$owner.first_name",
			"last_name":  "$owner.last_name",
			"avatar":     bson.M{"$ifNull": bson.A{"$owner.avatar", ""}},
		}}},
		{{Key: "$project", Value: bson.M{"owner": 0, "owner_oid": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "whole_experience", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to search trainers: %w", err)
	}
	defer cursor.Close(ctx)

	results := []*domain.TrainerWithUser{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode trainers: %w", err)
	}
	return results, nil
}

func (r *MongoTrainerRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
