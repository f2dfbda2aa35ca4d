package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/pulsechat/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and brings its schema up to date.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, nil)
}

// NewWithSetup opens the database, applies migrations and then runs setup.
// Useful for tests that need to seed or break the schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// GetUser retrieves an account by nickname.
func (s *SQLiteStore) GetUser(ctx context.Context, nickname string) (*store.User, error) {
	query := `
		SELECT nickname, COALESCE(key_hash, ''), COALESCE(decoration, ''), COALESCE(avatar, '')
		FROM users
		WHERE nickname = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, nickname).Scan(
		&user.Nickname,
		&user.PasswordHash,
		&user.Decoration,
		&user.Avatar,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", nickname, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// CreateUser inserts a new account.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *store.User) error {
	query := `
		INSERT INTO users (nickname, key_hash, decoration, avatar)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, user.Nickname, user.PasswordHash, user.Decoration, user.Avatar)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Nickname, store.ErrUserExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUserProfile replaces the decoration and avatar of an existing account.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, nickname, decoration, avatar string) error {
	query := `UPDATE users SET decoration = ?, avatar = ? WHERE nickname = ?`
	result, err := s.db.ExecContext(ctx, query, decoration, avatar, nickname)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return requireRow(result, nickname)
}

// UpdateUserKey replaces the stored key hash of an existing account.
func (s *SQLiteStore) UpdateUserKey(ctx context.Context, nickname, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET key_hash = ? WHERE nickname = ?`, passwordHash, nickname)
	if err != nil {
		return fmt.Errorf("update user key: %w", err)
	}
	return requireRow(result, nickname)
}

func requireRow(result sql.Result, nickname string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %q: %w", nickname, store.ErrNotFound)
	}
	return nil
}

// GetAvatar returns the stored avatar for nickname, or "" if there is no account.
func (s *SQLiteStore) GetAvatar(ctx context.Context, nickname string) (string, error) {
	var avatar string
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(avatar, '') FROM users WHERE nickname = ?`, nickname).Scan(&avatar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query avatar: %w", err)
	}
	return avatar, nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and assigns its id and server timestamp.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (nickname, decoration, message, timestamp)
		VALUES (?, ?, ?, ?)
	`
	createdAt := time.Now().UTC().Truncate(time.Second)
	result, err := s.db.ExecContext(ctx, query, msg.Nickname, msg.Decoration, msg.Text, createdAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	msg.CreatedAt = createdAt
	return nil
}

// ListRecentMessages returns at most limit of the newest messages in chronological order.
func (s *SQLiteStore) ListRecentMessages(ctx context.Context, limit int) ([]*store.Message, error) {
	query := `
		SELECT m.id, COALESCE(m.nickname, ''), COALESCE(m.decoration, ''), COALESCE(m.message, ''),
			m.timestamp, COALESCE(u.avatar, '')
		FROM messages m
		LEFT JOIN users u ON u.nickname = m.nickname
		ORDER BY m.id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0, limit)
	for rows.Next() {
		var (
			msg       store.Message
			createdAt sql.NullTime
		)
		if err := rows.Scan(&msg.ID, &msg.Nickname, &msg.Decoration, &msg.Text, &createdAt, &msg.Avatar); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.CreatedAt = createdAt.Time
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Reverse to get chronological order
	for i := 0; i < len(messages)/2; i++ {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}

	return messages, nil
}

// ClearMessages deletes all messages and reaction counters in one transaction.
func (s *SQLiteStore) ClearMessages(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reactions`); err != nil {
		return fmt.Errorf("delete reactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ==== ReactionStore implementation ====

// IncrementReaction bumps the counter for messageID in a single upsert statement.
func (s *SQLiteStore) IncrementReaction(ctx context.Context, messageID int64) (int64, error) {
	query := `
		INSERT INTO reactions (msg_id, count)
		VALUES (?, 1)
		ON CONFLICT(msg_id) DO UPDATE SET count = count + 1
		RETURNING count
	`
	var count int64
	if err := s.db.QueryRowContext(ctx, query, messageID).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment reaction: %w", err)
	}
	return count, nil
}

// GetReactionCount returns the counter for messageID.
func (s *SQLiteStore) GetReactionCount(ctx context.Context, messageID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(count, 0) FROM reactions WHERE msg_id = ?`, messageID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query reaction count: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
