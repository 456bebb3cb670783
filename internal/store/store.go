// Package store persists feelwrite users and journal entries in a
// document store.
//
// Two collections exist: users and entries. The interfaces here are
// implemented by the MongoDB-backed store and by an in-memory store used
// in tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/feelwritelabs/feelwrite/internal/sentiment"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidID indicates an id string that is not a valid document id.
	ErrInvalidID = errors.New("invalid document id")
)

// User is a registered account. Created at signup, read at login, never
// mutated afterward.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// Entry is a journal submission. Sentiment is nil until the inference
// service scores the entry; the entry is otherwise immutable.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Date      string             `bson:"date" json:"date"`
	Text      string             `bson:"text" json:"text"`
	Sentiment *sentiment.Score   `bson:"sentiment,omitempty" json:"sentiment,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// DisplayScore returns the composite score to show for the entry,
// defaulting to the neutral anchor when the entry has not been scored.
func (e Entry) DisplayScore() float64 {
	if e.Sentiment == nil {
		return sentiment.NeutralComposite
	}
	return e.Sentiment.Composite
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts u and fills in its generated ID. Returns
	// ErrDuplicateUsername if the username is taken.
	CreateUser(ctx context.Context, u *User) error

	// UserByUsername returns the user with the given username, or
	// ErrNotFound.
	UserByUsername(ctx context.Context, username string) (*User, error)

	// UserByID returns the user with the given id, or ErrNotFound.
	UserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
}

// EntryStore persists journal entries.
type EntryStore interface {
	// CreateEntry inserts e and fills in its generated ID.
	CreateEntry(ctx context.Context, e *Entry) error

	// EntryByID returns the entry with the given id, or ErrNotFound.
	EntryByID(ctx context.Context, id primitive.ObjectID) (*Entry, error)

	// EntriesByUser returns the user's entries, newest first.
	EntriesByUser(ctx context.Context, userID primitive.ObjectID) ([]Entry, error)

	// UpsertSentiment sets the sentiment object on the entry with the
	// given id, creating the document if it is absent. Racing calls for
	// one id resolve last-write-wins.
	UpsertSentiment(ctx context.Context, id primitive.ObjectID, score sentiment.Score) error
}

// ParseID converts an opaque entry/user id string back into a document id.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
