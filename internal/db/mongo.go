package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names. Accounts are partitioned by role; the partition order
// therapists → parents → admins is also the identity lookup priority.
const (
	CollTherapists        = "therapists"
	CollParents           = "parents"
	CollAdmins            = "admins"
	CollCommunities       = "communities"
	CollCommunityMessages = "community_messages"
	CollDirectMessages    = "direct_messages"
)

type DB struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

// New connects to MongoDB, verifies the connection, and returns a handle
// owning the process-wide client. Every external call carries a bounded
// timeout so a dead server surfaces as an error instead of a hang.
func New(ctx context.Context, mongoURL, dbName string, logger *zap.Logger) (*DB, error) {
	opts := options.Client().
		ApplyURI(mongoURL).
		SetMaxPoolSize(25).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(20 * time.Minute).
		SetServerSelectionTimeout(10 * time.Second).
		SetTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("mongo connection established",
		zap.String("database", dbName),
	)
	return &DB{
		client:   client,
		database: client.Database(dbName),
		logger:   logger,
	}, nil
}

func (db *DB) Close(ctx context.Context) {
	db.logger.Info("closing mongo client")
	if err := db.client.Disconnect(ctx); err != nil {
		db.logger.Warn("mongo disconnect", zap.Error(err))
	}
}

func (db *DB) Database() *mongo.Database {
	return db.database
}

func (db *DB) Health(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// EnsureIndexes creates the indexes the portal relies on. Safe to call on
// every startup; existing indexes are no-ops.
//
// The unique index on communities.name is load-bearing: it is what makes
// concurrent get-or-create of the default community converge on a single
// document instead of two.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		CollTherapists: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		CollParents: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		CollAdmins: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		CollCommunities: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		CollCommunityMessages: {
			{Keys: bson.D{{Key: "community_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		CollDirectMessages: {
			{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", coll, err)
		}
	}

	db.logger.Info("mongo indexes ensured")
	return nil
}
