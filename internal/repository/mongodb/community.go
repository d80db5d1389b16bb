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
	"github.com/neurobridge/portal-api/internal/repository"
)

type CommunityStore struct {
	coll *mongo.Collection
}

func NewCommunityStore(database *mongo.Database) *CommunityStore {
	return &CommunityStore{coll: database.Collection(db.CollCommunities)}
}

func (s *CommunityStore) Insert(ctx context.Context, community *models.Community) error {
	if _, err := s.coll.InsertOne(ctx, community); err != nil {
		// The unique name index turns a lost get-or-create race into a
		// duplicate-key error instead of a second community document.
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return wrapErr("insert community", err)
	}
	return nil
}

func (s *CommunityStore) getOne(ctx context.Context, filter bson.M) (*models.Community, error) {
	var community models.Community
	err := s.coll.FindOne(ctx, filter).Decode(&community)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find community", err)
	}
	return &community, nil
}

func (s *CommunityStore) GetByID(ctx context.Context, id string) (*models.Community, error) {
	return s.getOne(ctx, bson.M{"_id": id})
}

func (s *CommunityStore) GetByName(ctx context.Context, name string) (*models.Community, error) {
	return s.getOne(ctx, bson.M{"name": name})
}

func (s *CommunityStore) ListActive(ctx context.Context) ([]models.Community, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, wrapErr("list communities", err)
	}
	defer cursor.Close(ctx)

	communities := make([]models.Community, 0)
	if err := cursor.All(ctx, &communities); err != nil {
		return nil, wrapErr("decode communities", err)
	}
	return communities, nil
}

func (s *CommunityStore) AddMember(ctx context.Context, communityID, parentID string) (bool, error) {
	// The filter excludes communities that already hold the member, so a
	// matched count of zero means "already a member" and the update —
	// including the updated_at bump — never runs. Single-document atomic:
	// two concurrent joiners cannot both observe added=true.
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": communityID, "member_ids": bson.M{"$ne": parentID}},
		bson.M{
			"$addToSet": bson.M{"member_ids": parentID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, wrapErr("add member", err)
	}
	return res.MatchedCount == 1, nil
}

func (s *CommunityStore) RemoveMember(ctx context.Context, communityID, parentID string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": communityID, "member_ids": parentID},
		bson.M{
			"$pull": bson.M{"member_ids": parentID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, wrapErr("remove member", err)
	}
	return res.MatchedCount == 1, nil
}
