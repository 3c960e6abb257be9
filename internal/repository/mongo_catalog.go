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

// MongoCatalogRepository stores exercise categories and gym equipment
type MongoCatalogRepository struct {
	categories *mongo.Collection
	equipment  *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	r := &MongoCatalogRepository{
		categories: db.Collection("exercise_categories"),
		equipment:  db.Collection("gym_equipment"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	ensureIndexes(ctx, r.categories, unique)
	ensureIndexes(ctx, r.equipment, unique)

	return r
}

func byName() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
}

func (r *MongoCatalogRepository) ListCategories(ctx context.Context) ([]*domain.ExerciseCategory, error) {
	return findAll[domain.ExerciseCategory](ctx, r.categories, bson.M{}, byName())
}

func (r *MongoCatalogRepository) CountCategories(ctx context.Context, ids []string) (int, error) {
	n, err := r.categories.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}})
	return int(n), err
}

func (r *MongoCatalogRepository) EnsureCategories(ctx context.Context, names []string) (int, error) {
	return upsertNames(ctx, r.categories, names)
}

func (r *MongoCatalogRepository) ListEquipment(ctx context.Context) ([]*domain.GymEquipment, error) {
	return findAll[domain.GymEquipment](ctx, r.equipment, bson.M{}, byName())
}

func (r *MongoCatalogRepository) CountEquipment(ctx context.Context, ids []string) (int, error) {
	n, err := r.equipment.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}})
	return int(n), err
}

func (r *MongoCatalogRepository) EnsureEquipment(ctx context.Context, names []string) (int, error) {
	return upsertNames(ctx, r.equipment, names)
}

// upsertNames inserts the names that are missing and returns how many were added
func upsertNames(ctx context.Context, coll *mongo.Collection, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(names))
	for _, name := range names {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"name": name}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{"name": name}}).
			SetUpsert(true))
	}
	res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to seed %s: %w", coll.Name(), err)
	}
	return int(res.UpsertedCount), nil
}
