package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/feelwritelabs/feelwrite/internal/config"
	"github.com/feelwritelabs/feelwrite/internal/sentiment"
)

// mongoTestConfig returns a config pointing at a local test MongoDB, or
// skips the test when MONGO_TEST_HOST is unset.
func mongoTestConfig(t *testing.T) config.MongoConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	host := os.Getenv("MONGO_TEST_HOST")
	if host == "" {
		t.Skip("MONGO_TEST_HOST not set")
	}
	return config.MongoConfig{
		Host:     host,
		Port:     27017,
		Database: fmt.Sprintf("feelwrite_test_%d", time.Now().UnixNano()),
	}
}

func TestMongoIntegration(t *testing.T) {
	cfg := mongoTestConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := Connect(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() {
		_ = m.client.Database(cfg.Database).Drop(ctx)
		_ = m.Close(ctx)
	}()

	t.Run("users", func(t *testing.T) {
		u := &User{Username: "alice", PasswordHash: "hash"}
		require.NoError(t, m.CreateUser(ctx, u))
		assert.False(t, u.ID.IsZero())

		err := m.CreateUser(ctx, &User{Username: "alice", PasswordHash: "other"})
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		got, err := m.UserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		got, err = m.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)

		_, err = m.UserByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("entries and sentiment upsert", func(t *testing.T) {
		userID := primitive.NewObjectID()
		e := &Entry{UserID: userID, Date: "2024-11-01", Text: "I love this app!"}
		require.NoError(t, m.CreateEntry(ctx, e))

		score := sentiment.Score{Negative: 0.01, Neutral: 0.15, Positive: 0.84, Composite: 4.66}
		require.NoError(t, m.UpsertSentiment(ctx, e.ID, score))

		got, err := m.EntryByID(ctx, e.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Sentiment)
		assert.Equal(t, score, *got.Sentiment)

		// Overwrite, not duplicate.
		replacement := sentiment.Score{Negative: 0.6, Neutral: 0.3, Positive: 0.1, Composite: 2.0}
		require.NoError(t, m.UpsertSentiment(ctx, e.ID, replacement))

		got, err = m.EntryByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, replacement, *got.Sentiment)

		entries, err := m.EntriesByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		// Upsert on an absent id creates the document.
		orphan := primitive.NewObjectID()
		require.NoError(t, m.UpsertSentiment(ctx, orphan, score))
		created, err := m.EntryByID(ctx, orphan)
		require.NoError(t, err)
		require.NotNil(t, created.Sentiment)
	})
}
