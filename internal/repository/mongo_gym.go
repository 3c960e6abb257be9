package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoGymRepository struct {
	collection *mongo.Collection
}

func NewMongoGymRepository(db *mongo.Database) *MongoGymRepository {
	coll := db.Collection("gyms")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ensureIndexes(ctx, coll, mongo.IndexModel{Keys: bson.D{{Key: "trainer_id", Value: 1}}})

	return &MongoGymRepository{collection: coll}
}

func (r *MongoGymRepository) Create(ctx context.Context, gym *domain.Gym) error {
	gym.ID = ""
	gym.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, gym)
	if err != nil {
		return fmt.Errorf("failed to create gym: %w", err)
	}
	gym.ID = insertedHex(res)
	return nil
}

func (r *MongoGymRepository) GetByID(ctx context.Context, id string) (*domain.Gym, error) {
	return findByID[domain.Gym](ctx, r.collection, id, domain.ErrGymNotFound)
}

func (r *MongoGymRepository) ListByTrainer(ctx context.Context, trainerID string) ([]*domain.Gym, error) {
	return findAll[domain.Gym](ctx, r.collection, bson.M{"trainer_id": trainerID}, byName())
}

func (r *MongoGymRepository) Update(ctx context.Context, gym *domain.Gym) error {
	return updateByID(ctx, r.collection, gym.ID, bson.M{"$set": bson.M{
		"name":      gym.Name,
		"address":   gym.Address,
		"latitude":  gym.Latitude,
		"longitude": gym.Longitude,
	}}, domain.ErrGymNotFound)
}

func (r *MongoGymRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrGymNotFound)
}

func (r *MongoGymRepository) DeleteByTrainer(ctx context.Context, trainerID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"trainer_id": trainerID})
	return err
}
