package repository

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoExerciseRepository implements domain.ExerciseRepository
type MongoExerciseRepository struct {
	contentCollection
}

func NewMongoExerciseRepository(db *mongo.Database) *MongoExerciseRepository {
	return &MongoExerciseRepository{
		contentCollection: newContentCollection(db, "exercises", domain.ErrExerciseNotFound),
	}
}

func (r *MongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.SharedWith == nil {
		exercise.SharedWith = []string{}
	}
	exercise.ID = ""
	res, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	exercise.ID = insertedHex(res)
	return nil
}

func (r *MongoExerciseRepository) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	return findByID[domain.Exercise](ctx, r.collection, id, domain.ErrExerciseNotFound)
}

func (r *MongoExerciseRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Exercise, error) {
	out := make(map[string]*domain.Exercise, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	docs, err := findAll[domain.Exercise](ctx, r.collection, bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID] = d
	}
	return out, nil
}

func (r *MongoExerciseRepository) ListVisible(ctx context.Context, q domain.ExerciseQuery) ([]*domain.Exercise, error) {
	filter := nameFilter(visibleFilter(q.ViewerID), q.Name)
	if q.CategoryID != "" {
		filter["category_ids"] = q.CategoryID
	}
	return findAll[domain.Exercise](ctx, r.collection, filter, byNewest())
}

func (r *MongoExerciseRepository) ListArchived(ctx context.Context, userID string) ([]*domain.Exercise, error) {
	return findAll[domain.Exercise](ctx, r.collection, r.listArchived(userID), byNewest())
}

func (r *MongoExerciseRepository) ListPublished(ctx context.Context) ([]*domain.Exercise, error) {
	return findAll[domain.Exercise](ctx, r.collection, r.listPublished(), byNewest())
}

func (r *MongoExerciseRepository) FindDuplicate(ctx context.Context, e *domain.Exercise) (*domain.Exercise, error) {
	filter := bson.M{
		"name":        e.Name,
		"description": e.Description,
		"created_by":  e.CreatedBy,
		"preview":     optionalField(e.Preview),
		"video":       optionalField(e.Video),
		"original_id": optionalField(e.OriginalID),
	}
	if e.ID != "" {
		oid, err := toObjectID(e.ID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}
	return findOne[domain.Exercise](ctx, r.collection, filter, domain.ErrExerciseNotFound)
}

func (r *MongoExerciseRepository) FindClone(ctx context.Context, originalID, userID string) (*domain.Exercise, error) {
	return findOne[domain.Exercise](ctx, r.collection, r.cloneFilter(originalID, userID), domain.ErrExerciseNotFound)
}

func (r *MongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	doc := *exercise
	doc.ID = ""
	return replaceByID(ctx, r.collection, exercise.ID, doc, domain.ErrExerciseNotFound)
}

func (r *MongoExerciseRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrExerciseNotFound)
}

func (r *MongoExerciseRepository) DeleteOrphans(ctx context.Context) ([]*domain.Exercise, error) {
	orphans, err := findAll[domain.Exercise](ctx, r.collection, bson.M{
		"created_by":   bson.M{"$exists": false},
		"is_public":    false,
		"is_published": false,
		"shared_with":  bson.M{"$size": 0},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find orphan exercises: %w", err)
	}
	if len(orphans) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(orphans))
	for _, e := range orphans {
		ids = append(ids, e.ID)
	}
	// created_by is re-checked so an exercise claimed meanwhile survives
	_, err = r.collection.DeleteMany(ctx, bson.M{
		"_id":        bson.M{"$in": toObjectIDs(ids)},
		"created_by": bson.M{"$exists": false},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete orphan exercises: %w", err)
	}
	return orphans, nil
}

// optionalField matches an omitempty string field: missing when empty
func optionalField(v string) any {
	if v == "" {
		return bson.M{"$exists": false}
	}
	return v
}
