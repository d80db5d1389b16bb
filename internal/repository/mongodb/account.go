package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/neurobridge/portal-api/internal/db"
	"github.com/neurobridge/portal-api/internal/models"
	"github.com/neurobridge/portal-api/internal/repository"
)

// AccountStore reads and writes the role-partitioned account collections.
// It backs both the identity resolver's probe surface and the auth flows.
type AccountStore struct {
	database *mongo.Database
}

func NewAccountStore(database *mongo.Database) *AccountStore {
	return &AccountStore{database: database}
}

func (s *AccountStore) collection(role string) (*mongo.Collection, error) {
	switch role {
	case models.RoleTherapist:
		return s.database.Collection(db.CollTherapists), nil
	case models.RoleParent:
		return s.database.Collection(db.CollParents), nil
	case models.RoleAdmin:
		return s.database.Collection(db.CollAdmins), nil
	}
	return nil, fmt.Errorf("unknown account role %q", role)
}

func (s *AccountStore) findOne(ctx context.Context, role string, filter bson.M) (*models.Account, error) {
	coll, err := s.collection(role)
	if err != nil {
		return nil, err
	}

	var account models.Account
	err = coll.FindOne(ctx, filter).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find account", err)
	}
	// The role tag mirrors the collection; legacy rows may lack it.
	account.Role = role
	return &account, nil
}

func (s *AccountStore) FindByID(ctx context.Context, role, id string) (*models.Account, error) {
	return s.findOne(ctx, role, bson.M{"_id": id})
}

func (s *AccountStore) FindByNativeID(ctx context.Context, role string, id primitive.ObjectID) (*models.Account, error) {
	return s.findOne(ctx, role, bson.M{"_id": id})
}

func (s *AccountStore) FindByEmail(ctx context.Context, role, email string) (*models.Account, error) {
	return s.findOne(ctx, role, bson.M{"email": email})
}

func (s *AccountStore) FindManyByIDs(ctx context.Context, role string, ids []string) ([]models.Account, error) {
	coll, err := s.collection(role)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Account{}, nil
	}

	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrapErr("find accounts", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[string]models.Account, len(ids))
	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			return nil, wrapErr("decode account", err)
		}
		account.Role = role
		byID[account.ID] = account
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapErr("iterate accounts", err)
	}

	// Preserve the caller's id order; skip ids with no account.
	accounts := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		if account, ok := byID[id]; ok {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	coll, err := s.collection(account.Role)
	if err != nil {
		return err
	}

	if _, err := coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return wrapErr("insert account", err)
	}
	return nil
}
