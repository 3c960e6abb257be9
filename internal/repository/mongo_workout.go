package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoWorkoutRepository implements domain.WorkoutRepository
type MongoWorkoutRepository struct {
	contentCollection
}

func NewMongoWorkoutRepository(db *mongo.Database) *MongoWorkoutRepository {
	r := &MongoWorkoutRepository{
		contentCollection: newContentCollection(db, "workouts", domain.ErrWorkoutNotFound),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ensureIndexes(ctx, r.collection, mongo.IndexModel{Keys: bson.D{{Key: "exercises.exercise_id", Value: 1}}})

	return r
}

func (r *MongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) error {
	if workout.SharedWith == nil {
		workout.SharedWith = []string{}
	}
	if workout.Exercises == nil {
		workout.Exercises = []domain.WorkoutExercise{}
	}
	workout.ID = ""
	res, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	workout.ID = insertedHex(res)
	return nil
}

func (r *MongoWorkoutRepository) GetByID(ctx context.Context, id string) (*domain.Workout, error) {
	return findByID[domain.Workout](ctx, r.collection, id, domain.ErrWorkoutNotFound)
}

func (r *MongoWorkoutRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Workout, error) {
	out := make(map[string]*domain.Workout, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	docs, err := findAll[domain.Workout](ctx, r.collection, bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID] = d
	}
	return out, nil
}

func (r *MongoWorkoutRepository) ListVisible(ctx context.Context, q domain.WorkoutQuery) ([]*domain.Workout, error) {
	return findAll[domain.Workout](ctx, r.collection, nameFilter(visibleFilter(q.ViewerID), q.Name), byNewest())
}

func (r *MongoWorkoutRepository) ListArchived(ctx context.Context, userID string) ([]*domain.Workout, error) {
	return findAll[domain.Workout](ctx, r.collection, r.listArchived(userID), byNewest())
}

func (r *MongoWorkoutRepository) ListPublished(ctx context.Context) ([]*domain.Workout, error) {
	return findAll[domain.Workout](ctx, r.collection, r.listPublished(), byNewest())
}

func (r *MongoWorkoutRepository) FindClone(ctx context.Context, originalID, userID string) (*domain.Workout, error) {
	return findOne[domain.Workout](ctx, r.collection, r.cloneFilter(originalID, userID), domain.ErrWorkoutNotFound)
}

func (r *MongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	doc := *workout
	doc.ID = ""
	return replaceByID(ctx, r.collection, workout.ID, doc, domain.ErrWorkoutNotFound)
}

func (r *MongoWorkoutRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrWorkoutNotFound)
}

func (r *MongoWorkoutRepository) PullExercise(ctx context.Context, ownerID, exerciseID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"created_by": ownerID, "exercises.exercise_id": exerciseID},
		bson.M{
			"$pull": bson.M{"exercises": bson.M{"exercise_id": exerciseID}},
			"$set":  bson.M{"changed_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to pull exercise from workouts: %w", err)
	}
	return nil
}
