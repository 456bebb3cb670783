package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/feelwritelabs/feelwrite/internal/config"
	"github.com/feelwritelabs/feelwrite/internal/sentiment"
)

const (
	usersCollection   = "users"
	entriesCollection = "entries"
)

// Mongo is the MongoDB-backed store. It implements UserStore and
// EntryStore against the users and entries collections.
type Mongo struct {
	client  *mongo.Client
	users   *mongo.Collection
	entries *mongo.Collection
	logger  *zap.Logger
}

// Connect connects to MongoDB, verifies the connection with a ping, and
// ensures the unique index on users.username.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*Mongo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI()))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb at %s: %w", cfg.URI(), err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb at %s: %w", cfg.URI(), err)
	}

	db := client.Database(cfg.Database)
	m := &Mongo{
		client:  client,
		users:   db.Collection(usersCollection),
		entries: db.Collection(entriesCollection),
		logger:  logger,
	}

	// Username uniqueness is enforced here rather than in handlers.
	_, err = m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("creating username index: %w", err)
	}

	logger.Info("connected to mongodb",
		zap.String("uri", cfg.URI()),
		zap.String("database", cfg.Database))

	return m, nil
}

// Close disconnects from MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// CreateUser inserts the user and fills in its generated id.
func (m *Mongo) CreateUser(ctx context.Context, u *User) error {
	u.CreatedAt = time.Now().UTC()

	res, err := m.users.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, u.Username)
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// UserByUsername returns the user with the given username.
func (m *Mongo) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := m.users.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding user %q: %w", username, err)
	}
	return &u, nil
}

// UserByID returns the user with the given id.
func (m *Mongo) UserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var u User
	err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding user %s: %w", id.Hex(), err)
	}
	return &u, nil
}

// CreateEntry inserts the entry and fills in its generated id.
func (m *Mongo) CreateEntry(ctx context.Context, e *Entry) error {
	e.CreatedAt = time.Now().UTC()

	res, err := m.entries.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}

	e.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// EntryByID returns the entry with the given id.
func (m *Mongo) EntryByID(ctx context.Context, id primitive.ObjectID) (*Entry, error) {
	var e Entry
	err := m.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding entry %s: %w", id.Hex(), err)
	}
	return &e, nil
}

// EntriesByUser returns the user's entries, newest first.
func (m *Mongo) EntriesByUser(ctx context.Context, userID primitive.ObjectID) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.entries.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing entries for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	entries := []Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	return entries, nil
}

// UpsertSentiment sets the sentiment object on the entry, creating the
// document if absent. Exactly one write, no retries.
func (m *Mongo) UpsertSentiment(ctx context.Context, id primitive.ObjectID, score sentiment.Score) error {
	_, err := m.entries.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"sentiment": score}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upserting sentiment for entry %s: %w", id.Hex(), err)
	}
	return nil
}
