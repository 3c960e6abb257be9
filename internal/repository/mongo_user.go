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

// MongoUserRepository implements domain.UserRepository
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	coll := db.Collection("users")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// firebase_uid is sparse (only social accounts carry one)
	ensureIndexes(ctx, coll,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "firebase_uid", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	)

	return &MongoUserRepository{collection: coll}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now()
	user.ID = ""
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = insertedHex(res)
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return findByID[domain.User](ctx, r.collection, id, domain.ErrUserNotFound)
}

func (r *MongoUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	return findAll[domain.User](ctx, r.collection, bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"email": email}, domain.ErrUserNotFound)
}

func (r *MongoUserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"firebase_uid": uid}, domain.ErrUserNotFound)
}

func (r *MongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()
	set := bson.M{
		"email":         user.Email,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"password_hash": user.PasswordHash,
		"is_active":     user.IsActive,
		"is_trainer":    user.IsTrainer,
		"is_public":     user.IsPublic,
		"is_verified":   user.IsVerified,
		"updated_at":    user.UpdatedAt,
	}
	if user.FirebaseUID != "" {
		set["firebase_uid"] = user.FirebaseUID
	}

	err := updateByID(ctx, r.collection, user.ID, bson.M{"$set": set}, domain.ErrUserNotFound)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *MongoUserRepository) UpdateAvatar(ctx context.Context, userID, key string) error {
	update := bson.M{"$set": bson.M{"avatar": key, "updated_at": time.Now()}}
	if key == "" {
		update = bson.M{"$unset": bson.M{"avatar": ""}, "$set": bson.M{"updated_at": time.Now()}}
	}
	return updateByID(ctx, r.collection, userID, update, domain.ErrUserNotFound)
}

func (r *MongoUserRepository) UpdateRating(ctx context.Context, userID string, rating domain.UserRating) error {
	return updateByID(ctx, r.collection, userID, bson.M{"$set": bson.M{"rating": rating}}, domain.ErrUserNotFound)
}

func (r *MongoUserRepository) SetVerified(ctx context.Context, userID string) error {
	return updateByID(ctx, r.collection, userID, bson.M{"$set": bson.M{
		"is_verified": true,
		"updated_at":  time.Now(),
	}}, domain.ErrUserNotFound)
}

func (r *MongoUserRepository) ListIDs(ctx context.Context) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.collection, id, domain.ErrUserNotFound)
}
