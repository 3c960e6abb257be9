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

type MongoExperienceRepository struct {
	collection *mongo.Collection
}

func NewMongoExperienceRepository(db *mongo.Database) *MongoExperienceRepository {
	coll := db.Collection("experiences")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ensureIndexes(ctx, coll, mongo.IndexModel{Keys: bson.D{{Key: "trainer_id", Value: 1}, {Key: "start_date", Value: -1}}})

	return &MongoExperienceRepository{collection: coll}
}

func (r *MongoExperienceRepository) Create(ctx context.Context, exp *domain.Experience) error {
	exp.ID = ""
	res, err := r.collection.InsertOne(ctx, exp)
	if err != nil {
		return fmt.Errorf("failed to create experience: %w", err)
	}
	exp.ID = insertedHex(res)
	return nil
}

func (r *MongoExperienceRepository) GetByID(ctx context.Context, id string) (*domain.Experience, error) {
	return findByID[domain.Experience](ctx, r.collection, id, domain.ErrExperienceNotFound)
}

func (r *MongoExperienceRepository) ListByTrainer(ctx context.Context, trainerID string) ([]*domain.Experience, error) {
	return findAll[domain.Experience](ctx, r.collection, bson.M{"trainer_id": trainerID},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}}))
}

func (r *MongoExperienceRepository) TrainersWithOngoing(ctx context.Context) ([]string, error) {
	return r.distinctTrainers(ctx, bson.M{"end_date": bson.M{"$exists": false}})
}

func (r *MongoExperienceRepository) ListTrainerIDs(ctx context.Context) ([]string, error) {
	return r.distinctTrainers(ctx, bson.M{})
}

func (r *MongoExperienceRepository) distinctTrainers(ctx context.Context, filter bson.M) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "trainer_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers with experience: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MongoExperienceRepository) Update(ctx context.Context, exp *domain.Experience) error {
	doc := *exp
	doc.ID = ""
	return replaceByID(ctx, r.collection, exp.ID, doc, domain.ErrExperienceNotFound)
}

func (r *MongoExperienceRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrExperienceNotFound)
}

func (r *MongoExperienceRepository) DeleteByTrainer(ctx context.Context, trainerID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"trainer_id": trainerID})
	return err
}
