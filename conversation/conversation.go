// Package conversation persists chat conversations and their messages.
package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a conversation does not exist or belongs to
// another user.
var ErrNotFound = errors.New("conversation not found")

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups the messages of one chat thread.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single chat turn.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists conversations in the shared SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create starts a new conversation for userID.
func (s *Store) Create(ctx context.Context, userID string) (*Conversation, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, created_at, updated_at) VALUES (?,?,?)`,
		userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return &Conversation{ID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
}

// Get returns the conversation if it is owned by userID.
func (s *Store) Get(ctx context.Context, userID string, id int64) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %d: %w", id, err)
	}
	return &c, nil
}

// Touch bumps the conversation's UpdatedAt.
func (s *Store) Touch(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	return nil
}

// List returns the user's conversations, most recently active first.
func (s *Store) List(ctx context.Context, userID string) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM conversations
		 WHERE user_id = ? ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AppendMessage stores m and sets its ID and CreatedAt.
func (s *Store) AppendMessage(ctx context.Context, m *Message) error {
	m.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, user_id, role, content, created_at)
		VALUES (?,?,?,?,?)`,
		m.ConversationID, m.UserID, string(m.Role), m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	m.ID = id
	return nil
}

// Messages returns the last limit messages of the conversation in
// chronological order. A non-positive limit returns all of them.
func (s *Store) Messages(ctx context.Context, userID string, conversationID int64, limit int) ([]*Message, error) {
	q := `SELECT id, conversation_id, user_id, role, content, created_at FROM messages
	      WHERE conversation_id = ? AND user_id = ? ORDER BY id DESC`
	args := []any{conversationID, userID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out, nil
}
