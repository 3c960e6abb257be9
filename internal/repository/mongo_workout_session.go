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

type MongoWorkoutSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutSessionRepository(db *mongo.Database) *MongoWorkoutSessionRepository {
	coll := db.Collection("workout_sessions")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ensureIndexes(ctx, coll,
		mongo.IndexModel{Keys: bson.D{{Key: "trainer_id", Value: 1}, {Key: "start", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "start", Value: 1}}},
	)

	return &MongoWorkoutSessionRepository{collection: coll}
}

func (r *MongoWorkoutSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) error {
	now := time.Now()
	session.ID = ""
	session.End = session.Finish()
	session.CreatedAt = now
	session.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	session.ID = insertedHex(res)
	return nil
}

func (r *MongoWorkoutSessionRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSession, error) {
	return findByID[domain.WorkoutSession](ctx, r.collection, id, domain.ErrSessionNotFound)
}

// overlapping matches sessions that intersect [from, to). Zero bounds are open.
func overlapping(field, id string, from, to time.Time) bson.M {
	filter := bson.M{field: id}
	if !to.IsZero() {
		filter["start"] = bson.M{"$lt": to}
	}
	if !from.IsZero() {
		filter["end"] = bson.M{"$gt": from}
	}
	return filter
}

func byStart() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
}

func (r *MongoWorkoutSessionRepository) ListByTrainer(ctx context.Context, trainerID string, from, to time.Time) ([]*domain.WorkoutSession, error) {
	return findAll[domain.WorkoutSession](ctx, r.collection, overlapping("trainer_id", trainerID, from, to), byStart())
}

func (r *MongoWorkoutSessionRepository) ListByClient(ctx context.Context, clientID string, from, to time.Time) ([]*domain.WorkoutSession, error) {
	return findAll[domain.WorkoutSession](ctx, r.collection, overlapping("client_id", clientID, from, to), byStart())
}

func (r *MongoWorkoutSessionRepository) Update(ctx context.Context, session *domain.WorkoutSession) error {
	session.End = session.Finish()
	session.UpdatedAt = time.Now()
	return updateByID(ctx, r.collection, session.ID, bson.M{"$set": bson.M{
		"start":      session.Start,
		"duration":   session.Duration,
		"end":        session.End,
		"updated_at": session.UpdatedAt,
	}}, domain.ErrSessionNotFound)
}

func (r *MongoWorkoutSessionRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrSessionNotFound)
}

func (r *MongoWorkoutSessionRepository) DeleteByTrainer(ctx context.Context, trainerID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"trainer_id": trainerID})
	return err
}

func (r *MongoWorkoutSessionRepository) DeleteByClient(ctx context.Context, clientID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"client_id": clientID})
	return err
}
