package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// contentCollection implements domain.LifecycleRepository for any collection
// whose documents embed domain.Lineage
type contentCollection struct {
	collection *mongo.Collection
	notFound   error
}

func newContentCollection(db *mongo.Database, name string, notFound error) contentCollection {
	coll := db.Collection(name)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ensureIndexes(ctx, coll,
		mongo.IndexModel{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "is_archived", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "original_id", Value: 1}, {Key: "created_by", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "shared_with", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "is_published", Value: 1}, {Key: "is_archived", Value: 1}}},
	)

	return contentCollection{collection: coll, notFound: notFound}
}

// visibleFilter matches public items plus items owned by or shared with the viewer
func visibleFilter(viewerID string) bson.M {
	or := bson.A{bson.M{"is_public": true}}
	if viewerID != "" {
		or = append(or, bson.M{"created_by": viewerID}, bson.M{"shared_with": viewerID})
	}
	return bson.M{"$or": or, "is_archived": false}
}

func byNewest() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "changed_at", Value: -1}})
}

func (c contentCollection) SetArchived(ctx context.Context, id string, archived bool) error {
	return updateByID(ctx, c.collection, id, bson.M{"$set": bson.M{
		"is_archived": archived,
		"changed_at":  time.Now(),
	}}, c.notFound)
}

func (c contentCollection) SetPublished(ctx context.Context, ids []string, published bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}},
		bson.M{"$set": bson.M{"is_published": published}},
	)
	if err != nil {
		return fmt.Errorf("failed to set published on %s: %w", c.collection.Name(), err)
	}
	return nil
}

func (c contentCollection) AddSharedWith(ctx context.Context, ids []string, userIDs []string) error {
	if len(ids) == 0 || len(userIDs) == 0 {
		return nil
	}
	_, err := c.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}},
		bson.M{"$addToSet": bson.M{"shared_with": bson.M{"$each": userIDs}}},
	)
	if err != nil {
		return fmt.Errorf("failed to share %s: %w", c.collection.Name(), err)
	}
	return nil
}

func (c contentCollection) RemoveSharedWith(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": toObjectIDs(ids)}},
		bson.M{"$pull": bson.M{"shared_with": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to unshare %s: %w", c.collection.Name(), err)
	}
	return nil
}

func (c contentCollection) RemoveUserFromShares(ctx context.Context, userID string) error {
	_, err := c.collection.UpdateMany(ctx,
		bson.M{"shared_with": userID},
		bson.M{"$pull": bson.M{"shared_with": userID}},
	)
	return err
}

func (c contentCollection) CountByCreator(ctx context.Context, userID string) (int64, error) {
	return c.collection.CountDocuments(ctx, bson.M{"created_by": userID})
}

func (c contentCollection) CountClones(ctx context.Context, ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"original_id": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{"_id": "$original_id", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := c.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count clones: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode clone counts: %w", err)
	}
	for _, r := range rows {
		counts[r.ID] = r.Count
	}
	return counts, nil
}

func (c contentCollection) DetachCreator(ctx context.Context, userID string) error {
	_, err := c.collection.UpdateMany(ctx,
		bson.M{"created_by": userID},
		bson.M{"$unset": bson.M{"created_by": ""}},
	)
	return err
}

func (c contentCollection) listArchived(userID string) bson.M {
	return bson.M{"created_by": userID, "is_archived": true}
}

func (c contentCollection) listPublished() bson.M {
	return bson.M{"is_published": true, "is_archived": false}
}

func (c contentCollection) cloneFilter(originalID, userID string) bson.M {
	return bson.M{"original_id": originalID, "created_by": userID}
}

func nameFilter(filter bson.M, name string) bson.M {
	if name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"}
	}
	return filter
}
