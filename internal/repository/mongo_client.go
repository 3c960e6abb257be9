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

type MongoClientRepository struct {
	collection *mongo.Collection
}

func NewMongoClientRepository(db *mongo.Database) *MongoClientRepository {
	coll := db.Collection("clients")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ensureIndexes(ctx, coll, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoClientRepository{collection: coll}
}

func (r *MongoClientRepository) Create(ctx context.Context, client *domain.Client) error {
	client.ID = ""
	client.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	client.ID = insertedHex(res)
	return nil
}

func (r *MongoClientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return findByID[domain.Client](ctx, r.collection, id, domain.ErrClientNotFound)
}

func (r *MongoClientRepository) GetByUserID(ctx context.Context, userID string) (*domain.Client, error) {
	return findOne[domain.Client](ctx, r.collection, bson.M{"user_id": userID}, domain.ErrClientNotFound)
}

func (r *MongoClientRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// MongoTrainerOfClientRepository stores client to trainer links
type MongoTrainerOfClientRepository struct {
	collection *mongo.Collection
}

func NewMongoTrainerOfClientRepository(db *mongo.Database) *MongoTrainerOfClientRepository {
	coll := db.Collection("trainers_of_clients")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ensureIndexes(ctx, coll,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "trainer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "trainer_id", Value: 1}}},
	)

	return &MongoTrainerOfClientRepository{collection: coll}
}

func (r *MongoTrainerOfClientRepository) Create(ctx context.Context, link *domain.TrainerOfClient) error {
	link.ID = ""
	link.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrTrainerLinkExists
		}
		return fmt.Errorf("failed to link trainer: %w", err)
	}
	link.ID = insertedHex(res)
	return nil
}

func (r *MongoTrainerOfClientRepository) GetByID(ctx context.Context, id string) (*domain.TrainerOfClient, error) {
	return findByID[domain.TrainerOfClient](ctx, r.collection, id, domain.ErrTrainerLinkMissing)
}

func (r *MongoTrainerOfClientRepository) Get(ctx context.Context, clientID, trainerID string) (*domain.TrainerOfClient, error) {
	return findOne[domain.TrainerOfClient](ctx, r.collection,
		bson.M{"client_id": clientID, "trainer_id": trainerID}, domain.ErrTrainerLinkMissing)
}

// ListByClient returns favourites first
func (r *MongoTrainerOfClientRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.TrainerOfClient, error) {
	return findAll[domain.TrainerOfClient](ctx, r.collection, bson.M{"client_id": clientID},
		options.Find().SetSort(bson.D{{Key: "favourite", Value: -1}, {Key: "created_at", Value: -1}}))
}

func (r *MongoTrainerOfClientRepository) ListByTrainer(ctx context.Context, trainerID string) ([]*domain.TrainerOfClient, error) {
	return findAll[domain.TrainerOfClient](ctx, r.collection, bson.M{"trainer_id": trainerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *MongoTrainerOfClientRepository) SetFavourite(ctx context.Context, id string, favourite bool) error {
	return updateByID(ctx, r.collection, id, bson.M{"$set": bson.M{"favourite": favourite}}, domain.ErrTrainerLinkMissing)
}

func (r *MongoTrainerOfClientRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrTrainerLinkMissing)
}

func (r *MongoTrainerOfClientRepository) DeleteByClient(ctx context.Context, clientID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"client_id": clientID})
	return err
}

func (r *MongoTrainerOfClientRepository) DeleteByTrainer(ctx context.Context, trainerID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"trainer_id": trainerID})
	return err
}
