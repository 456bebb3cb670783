package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/feelwritelabs/feelwrite/internal/sentiment"
)

// Memory is an in-memory store implementing UserStore and EntryStore.
// It backs handler tests and exercises the same contract as Mongo,
// including upsert create-if-absent semantics.
type Memory struct {
	mu      sync.RWMutex
	users   map[primitive.ObjectID]User
	entries map[primitive.ObjectID]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[primitive.ObjectID]User),
		entries: make(map[primitive.ObjectID]Entry),
	}
}

// CreateUser inserts the user, enforcing username uniqueness.
func (m *Memory) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, u.Username)
		}
	}

	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

// UserByUsername returns the user with the given username.
func (m *Memory) UserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// UserByID returns the user with the given id.
func (m *Memory) UserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

// CreateEntry inserts the entry.
func (m *Memory) CreateEntry(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now().UTC()
	m.entries[e.ID] = *e
	return nil
}

// EntryByID returns the entry with the given id.
func (m *Memory) EntryByID(ctx context.Context, id primitive.ObjectID) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	entry := e
	return &entry, nil
}

// EntriesByUser returns the user's entries, newest first.
func (m *Memory) EntriesByUser(ctx context.Context, userID primitive.ObjectID) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []Entry{}
	for _, e := range m.entries {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// UpsertSentiment sets the sentiment object on the entry, creating a bare
// document when the id is absent. Last write wins.
func (m *Memory) UpsertSentiment(ctx context.Context, id primitive.ObjectID, score sentiment.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		e = Entry{ID: id}
	}
	s := score
	e.Sentiment = &s
	m.entries[id] = e
	return nil
}
