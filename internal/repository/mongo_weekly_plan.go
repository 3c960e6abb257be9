package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPlanRepository implements domain.PlanRepository
type MongoPlanRepository struct {
	contentCollection
}

func NewMongoPlanRepository(db *mongo.Database) *MongoPlanRepository {
	r := &MongoPlanRepository{
		contentCollection: newContentCollection(db, "weekly_fitness_plans", domain.ErrPlanNotFound),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ensureIndexes(ctx, r.collection, mongo.IndexModel{Keys: bson.D{{Key: "workouts.workout_id", Value: 1}}})

	return r
}

func (r *MongoPlanRepository) Create(ctx context.Context, plan *domain.WeeklyFitnessPlan) error {
	if plan.SharedWith == nil {
		plan.SharedWith = []string{}
	}
	if plan.Workouts == nil {
		plan.Workouts = []domain.PlanWorkout{}
	}
	plan.ID = ""
	res, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to create weekly plan: %w", err)
	}
	plan.ID = insertedHex(res)
	return nil
}

func (r *MongoPlanRepository) GetByID(ctx context.Context, id string) (*domain.WeeklyFitnessPlan, error) {
	return findByID[domain.WeeklyFitnessPlan](ctx, r.collection, id, domain.ErrPlanNotFound)
}

func (r *MongoPlanRepository) ListVisible(ctx context.Context, q domain.WorkoutQuery) ([]*domain.WeeklyFitnessPlan, error) {
	return findAll[domain.WeeklyFitnessPlan](ctx, r.collection, nameFilter(visibleFilter(q.ViewerID), q.Name), byNewest())
}

func (r *MongoPlanRepository) ListArchived(ctx context.Context, userID string) ([]*domain.WeeklyFitnessPlan, error) {
	return findAll[domain.WeeklyFitnessPlan](ctx, r.collection, r.listArchived(userID), byNewest())
}

func (r *MongoPlanRepository) ListPublished(ctx context.Context) ([]*domain.WeeklyFitnessPlan, error) {
	return findAll[domain.WeeklyFitnessPlan](ctx, r.collection, r.listPublished(), byNewest())
}

func (r *MongoPlanRepository) FindClone(ctx context.Context, originalID, userID string) (*domain.WeeklyFitnessPlan, error) {
	return findOne[domain.WeeklyFitnessPlan](ctx, r.collection, r.cloneFilter(originalID, userID), domain.ErrPlanNotFound)
}

func (r *MongoPlanRepository) Update(ctx context.Context, plan *domain.WeeklyFitnessPlan) error {
	doc := *plan
	doc.ID = ""
	return replaceByID(ctx, r.collection, plan.ID, doc, domain.ErrPlanNotFound)
}

func (r *MongoPlanRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrPlanNotFound)
}

func (r *MongoPlanRepository) PullWorkout(ctx context.Context, ownerID, workoutID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"created_by": ownerID, "workouts.workout_id": workoutID},
		bson.M{
			"$pull": bson.M{"workouts": bson.M{"workout_id": workoutID}},
			"$set":  bson.M{"changed_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to pull workout from plans: %w", err)
	}
	return nil
}
