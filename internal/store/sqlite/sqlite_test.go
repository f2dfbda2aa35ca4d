package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pulsechat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	applied, err := Migrate(context.Background(), s.db)
	require.NoError(t, err)
	assert.Equal(t, 0, applied, "second run should not apply anything")
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "alice")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, &store.User{
		Nickname:     "alice",
		PasswordHash: "hash",
		Decoration:   "*",
		Avatar:       "cat.png",
	}))

	err = s.CreateUser(ctx, &store.User{Nickname: "alice", PasswordHash: "other"})
	require.ErrorIs(t, err, store.ErrUserExists)

	user, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, "*", user.Decoration)
	assert.Equal(t, "cat.png", user.Avatar)

	require.NoError(t, s.UpdateUserProfile(ctx, "alice", "+", "dog.png"))
	avatar, err := s.GetAvatar(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "dog.png", avatar)

	err = s.UpdateUserProfile(ctx, "nobody", "", "")
	require.ErrorIs(t, err, store.ErrNotFound)

	avatar, err = s.GetAvatar(ctx, "Guest1")
	require.NoError(t, err)
	assert.Empty(t, avatar)
}

func TestUpdateUserKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &store.User{Nickname: "alice", PasswordHash: "old"}))
	require.NoError(t, s.UpdateUserKey(ctx, "alice", "new"))

	user, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", user.PasswordHash)

	require.ErrorIs(t, s.UpdateUserKey(ctx, "nobody", "x"), store.ErrNotFound)
}

// legacySchemas are the table layouts written by earlier deployments.
var legacySchemas = map[string][]string{
	"initial": {
		`CREATE TABLE messages (id INTEGER PRIMARY KEY AUTOINCREMENT, nickname TEXT, decoration TEXT,
			message TEXT, timestamp DATETIME DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE users (nickname TEXT PRIMARY KEY, key_hash TEXT, decoration TEXT)`,
	},
	"with avatar and reactions": {
		`CREATE TABLE messages (id INTEGER PRIMARY KEY AUTOINCREMENT, nickname TEXT, decoration TEXT,
			message TEXT, timestamp DATETIME DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE users (nickname TEXT PRIMARY KEY, key_hash TEXT, decoration TEXT)`,
		`ALTER TABLE users ADD COLUMN avatar TEXT`,
		`CREATE TABLE reactions (msg_id INTEGER, count INTEGER DEFAULT 0, PRIMARY KEY(msg_id))`,
		`INSERT INTO reactions (msg_id, count) VALUES (1, 3)`,
		`UPDATE users SET avatar = 'cat.png'`,
	},
}

func TestLegacyDatabaseIsAdopted(t *testing.T) {
	for name, schema := range legacySchemas {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "messages.db")

			raw, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			stmts := append([]string{}, schema[:2]...)
			stmts = append(stmts,
				`INSERT INTO users (nickname, key_hash, decoration) VALUES ('alice', 'abc123', NULL)`,
				`INSERT INTO messages (nickname, decoration, message, timestamp) VALUES ('alice', NULL, 'hi', '2024-01-02 03:04:05')`,
			)
			stmts = append(stmts, schema[2:]...)
			for _, stmt := range stmts {
				_, err := raw.Exec(stmt)
				require.NoError(t, err, stmt)
			}
			require.NoError(t, raw.Close())

			s, err := New(path)
			require.NoError(t, err)
			defer s.Close()
			ctx := context.Background()

			user, err := s.GetUser(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "abc123", user.PasswordHash)
			assert.Empty(t, user.Decoration)

			messages, err := s.ListRecentMessages(ctx, 10)
			require.NoError(t, err)
			require.Len(t, messages, 1)
			assert.Equal(t, "hi", messages[0].Text)
			assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), messages[0].CreatedAt.UTC())

			wantCount := int64(1)
			if name == "with avatar and reactions" {
				assert.Equal(t, "cat.png", messages[0].Avatar)
				wantCount = 4
			}
			count, err := s.IncrementReaction(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, wantCount, count)

			require.NoError(t, s.UpdateUserProfile(ctx, "alice", "*", "dog.png"))
			msg := &store.Message{Nickname: "alice", Text: "again"}
			require.NoError(t, s.SaveMessage(ctx, msg))
			assert.Equal(t, int64(2), msg.ID)
		})
	}
}

func TestListRecentMessagesOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &store.User{Nickname: "bob", PasswordHash: "h", Avatar: "bob.png"}))

	var lastID int64
	for i := 0; i < 5; i++ {
		msg := &store.Message{Nickname: "bob", Text: fmt.Sprintf("m%d", i)}
		require.NoError(t, s.SaveMessage(ctx, msg))
		require.Greater(t, msg.ID, lastID, "ids must increase")
		require.False(t, msg.CreatedAt.IsZero())
		lastID = msg.ID
	}

	messages, err := s.ListRecentMessages(ctx, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, "m2", messages[0].Text)
	assert.Equal(t, "m4", messages[2].Text)
	assert.Equal(t, lastID, messages[2].ID)
	assert.Equal(t, "bob.png", messages[2].Avatar)
}

func TestReactionsAreMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.GetReactionCount(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, count)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, incErr := s.IncrementReaction(ctx, 42)
			assert.NoError(t, incErr)
		}()
	}
	wg.Wait()

	count, err = s.GetReactionCount(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)

	count, err = s.IncrementReaction(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(workers+1), count)
}

func TestClearMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &store.Message{Nickname: "Guest1", Text: "hello"}
	require.NoError(t, s.SaveMessage(ctx, msg))
	_, err := s.IncrementReaction(ctx, msg.ID)
	require.NoError(t, err)

	require.NoError(t, s.ClearMessages(ctx))
	require.NoError(t, s.ClearMessages(ctx), "purge must be idempotent")

	messages, err := s.ListRecentMessages(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, messages)

	count, err := s.GetReactionCount(ctx, msg.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// ids keep increasing after a purge
	next := &store.Message{Nickname: "Guest1", Text: "again"}
	require.NoError(t, s.SaveMessage(ctx, next))
	assert.Greater(t, next.ID, msg.ID)
}

func TestStorageFailureIsReported(t *testing.T) {
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, execErr := db.Exec(`DROP TABLE messages`)
		return execErr
	})
	require.NoError(t, err)
	defer s.Close()

	err = s.SaveMessage(context.Background(), &store.Message{Nickname: "x", Text: "y"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}
