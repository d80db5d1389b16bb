package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neurobridge/portal-api/internal/db"
	"github.com/neurobridge/portal-api/internal/models"
)

type CommunityMessageStore struct {
	coll *mongo.Collection
}

func NewCommunityMessageStore(database *mongo.Database) *CommunityMessageStore {
	return &CommunityMessageStore{coll: database.Collection(db.CollCommunityMessages)}
}

// scoped keys a message by (community id, message id): a lookup through
// the wrong owning community must not match.
func scoped(communityID, messageID string) bson.M {
	filter := idFilter(messageID)
	filter["community_id"] = communityID
	return filter
}

func (s *CommunityMessageStore) Insert(ctx context.Context, msg *models.CommunityMessage) error {
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return wrapErr("insert community message", err)
	}
	return nil
}

func (s *CommunityMessageStore) GetByID(ctx context.Context, communityID, messageID string) (*models.CommunityMessage, error) {
	var msg models.CommunityMessage
	err := s.coll.FindOne(ctx, scoped(communityID, messageID)).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find community message", err)
	}
	return &msg, nil
}

func (s *CommunityMessageStore) ListPage(ctx context.Context, communityID, viewerID string, limit, offset int) ([]models.CommunityMessage, int64, error) {
	// Legacy rows may lack is_deleted/deleted_for entirely, so the filter
	// uses $ne/$nin rather than equality against the zero values.
	filter := bson.M{
		"community_id": communityID,
		"is_deleted":   bson.M{"$ne": true},
		"deleted_for":  bson.M{"$nin": bson.A{viewerID}},
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapErr("count community messages", err)
	}

	// Offset counts from the oldest visible message; the scan runs
	// newest-first. The oldest-first window [offset, offset+limit) is the
	// newest-first window [total-offset-limit, total-offset).
	if int64(offset) >= total {
		return []models.CommunityMessage{}, total, nil
	}
	end := total - int64(offset)
	start := end - int64(limit)
	if start < 0 {
		start = 0
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(start).
		SetLimit(end-start))
	if err != nil {
		return nil, 0, wrapErr("list community messages", err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.CommunityMessage, 0, limit)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, wrapErr("decode community messages", err)
	}
	return messages, total, nil
}

func (s *CommunityMessageStore) MarkDeleted(ctx context.Context, communityID, messageID string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx, scoped(communityID, messageID), bson.M{
		"$set": bson.M{"is_deleted": true, "deleted_at": at},
	})
	if err != nil {
		return wrapErr("mark community message deleted", err)
	}
	return nil
}

func (s *CommunityMessageStore) HideFor(ctx context.Context, communityID, messageID, userID string) error {
	_, err := s.coll.UpdateOne(ctx, scoped(communityID, messageID), bson.M{
		"$addToSet": bson.M{"deleted_for": userID},
	})
	if err != nil {
		return wrapErr("hide community message", err)
	}
	return nil
}

func (s *CommunityMessageStore) ToggleReaction(ctx context.Context, communityID, messageID, emoji, userID string) (map[string][]string, error) {
	reactions, err := toggleReaction(ctx, s.coll, scoped(communityID, messageID), emoji, userID)
	if err != nil {
		return nil, wrapErr("toggle community reaction", err)
	}
	return reactions, nil
}

// toggleReaction flips userID's membership in the emoji's reactor set
// using element-keyed atomic updates instead of rewriting the whole map,
// so two users toggling the same message at once cannot lose each other's
// writes. Shared by both message stores.
func toggleReaction(ctx context.Context, coll *mongo.Collection, base bson.M, emoji, userID string) (map[string][]string, error) {
	key := "reactions." + emoji

	// Pull first: matches only when the user already reacted.
	withUser := bson.M{key: userID}
	for k, v := range base {
		withUser[k] = v
	}
	res, err := coll.UpdateOne(ctx, withUser, bson.M{"$pull": bson.M{key: userID}})
	if err != nil {
		return nil, err
	}

	if res.MatchedCount == 0 {
		// Not present yet: add. $addToSet keeps the set property even if
		// another toggle landed in between.
		if _, err := coll.UpdateOne(ctx, base, bson.M{"$addToSet": bson.M{key: userID}}); err != nil {
			return nil, err
		}
	} else {
		// Removed the last reactor? Drop the emoji entry — reaction sets
		// are never stored empty.
		nowEmpty := bson.M{key: bson.M{"$size": 0}}
		for k, v := range base {
			nowEmpty[k] = v
		}
		if _, err := coll.UpdateOne(ctx, nowEmpty, bson.M{"$unset": bson.M{key: ""}}); err != nil {
			return nil, err
		}
	}

	var doc struct {
		Reactions map[string][]string `bson:"reactions"`
	}
	err = coll.FindOne(ctx, base,
		options.FindOne().SetProjection(bson.M{"reactions": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Reactions == nil {
		doc.Reactions = map[string][]string{}
	}
	return doc.Reactions, nil
}
