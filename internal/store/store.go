package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when creating an account whose nickname is taken.
	ErrUserExists = errors.New("user already exists")
)

// User is a credentialed account. Guests never get one.
type User struct {
	Nickname     string
	PasswordHash string
	Decoration   string
	Avatar       string
}

// Message represents a persisted chat message.
// Avatar is not stored with the message; it is joined from the author's account on read.
type Message struct {
	ID         int64
	Nickname   string
	Decoration string
	Text       string
	CreatedAt  time.Time
	Avatar     string
}

// UserStore is the credential store.
type UserStore interface {
	// GetUser retrieves an account by nickname. Returns ErrNotFound when absent.
	GetUser(ctx context.Context, nickname string) (*User, error)

	// CreateUser inserts a new account. Returns ErrUserExists if the nickname is taken.
	CreateUser(ctx context.Context, user *User) error

	// UpdateUserProfile replaces the decoration and avatar of an existing account.
	UpdateUserProfile(ctx context.Context, nickname, decoration, avatar string) error

	// UpdateUserKey replaces the stored key hash of an existing account.
	UpdateUserKey(ctx context.Context, nickname, passwordHash string) error

	// GetAvatar returns the stored avatar for nickname, or "" if there is no account.
	GetAvatar(ctx context.Context, nickname string) (string, error)
}

// MessageStore is the append-only message log.
type MessageStore interface {
	// SaveMessage persists msg and fills in its ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListRecentMessages returns at most limit of the newest messages, oldest first.
	ListRecentMessages(ctx context.Context, limit int) ([]*Message, error)

	// ClearMessages deletes every message and every reaction counter.
	ClearMessages(ctx context.Context) error
}

// ReactionStore keeps per-message reaction counters.
type ReactionStore interface {
	// IncrementReaction adds one to the counter of messageID, creating it at 1, and returns the new value.
	IncrementReaction(ctx context.Context, messageID int64) (int64, error)

	// GetReactionCount returns the counter for messageID, 0 when none exists.
	GetReactionCount(ctx context.Context, messageID int64) (int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	ReactionStore

	// Close closes the underlying database connection.
	Close() error
}
