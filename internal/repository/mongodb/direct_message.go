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

type DirectMessageStore struct {
	coll *mongo.Collection
}

func NewDirectMessageStore(database *mongo.Database) *DirectMessageStore {
	return &DirectMessageStore{coll: database.Collection(db.CollDirectMessages)}
}

func (s *DirectMessageStore) Insert(ctx context.Context, msg *models.DirectMessage) error {
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return wrapErr("insert direct message", err)
	}
	return nil
}

func (s *DirectMessageStore) GetByID(ctx context.Context, messageID string) (*models.DirectMessage, error) {
	var msg models.DirectMessage
	err := s.coll.FindOne(ctx, idFilter(messageID)).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find direct message", err)
	}
	return &msg, nil
}

func (s *DirectMessageStore) ListForUser(ctx context.Context, userID string) ([]models.DirectMessage, error) {
	// Globally deleted messages stay in the list as tombstones — their
	// content is already the placeholder. Per-user hides are excluded.
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userID},
			bson.M{"recipient_id": userID},
		},
		"deleted_for": bson.M{"$nin": bson.A{userID}},
	}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, wrapErr("list direct messages", err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.DirectMessage, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, wrapErr("decode direct messages", err)
	}
	return messages, nil
}

func (s *DirectMessageStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"recipient_id": userID,
		"read":         false,
		"is_deleted":   bson.M{"$ne": true},
		"deleted_for":  bson.M{"$nin": bson.A{userID}},
	})
	if err != nil {
		return 0, wrapErr("count unread messages", err)
	}
	return count, nil
}

func (s *DirectMessageStore) MarkRead(ctx context.Context, messageID string) error {
	_, err := s.coll.UpdateOne(ctx, idFilter(messageID), bson.M{
		"$set": bson.M{"read": true},
	})
	if err != nil {
		return wrapErr("mark message read", err)
	}
	return nil
}

func (s *DirectMessageStore) MarkDeleted(ctx context.Context, messageID string, at time.Time) error {
	// Content is overwritten, not erased: the row survives as a tombstone
	// for conversational continuity.
	_, err := s.coll.UpdateOne(ctx, idFilter(messageID), bson.M{
		"$set": bson.M{
			"is_deleted": true,
			"deleted_at": at,
			"content":    models.DeletedPlaceholder,
		},
	})
	if err != nil {
		return wrapErr("mark direct message deleted", err)
	}
	return nil
}

func (s *DirectMessageStore) HideFor(ctx context.Context, messageID, userID string) error {
	_, err := s.coll.UpdateOne(ctx, idFilter(messageID), bson.M{
		"$addToSet": bson.M{"deleted_for": userID},
	})
	if err != nil {
		return wrapErr("hide direct message", err)
	}
	return nil
}

func (s *DirectMessageStore) ToggleReaction(ctx context.Context, messageID, emoji, userID string) (map[string][]string, error) {
	reactions, err := toggleReaction(ctx, s.coll, idFilter(messageID), emoji, userID)
	if err != nil {
		return nil, wrapErr("toggle direct reaction", err)
	}
	return reactions, nil
}
