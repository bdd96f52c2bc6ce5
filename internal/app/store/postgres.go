package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dmchat/internal/app/user"
)

// PostgresStore implements ConversationStore on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an initialized connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// GetUser resolves a user id to its public identity view.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := s.pool.QueryRow(ctx,
		`SELECT id, username FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username)

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user %d: %w", id, err)
	}

	return u, nil
}

// GetConversation loads a conversation and its participant ids.
func (s *PostgresStore) GetConversation(ctx context.Context, id int64) (Conversation, error) {
	var c Conversation

	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at FROM conversations WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = $1 ORDER BY user_id`,
		id,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation %d participants: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var participantID int64
		if err := rows.Scan(&participantID); err != nil {
			return Conversation{}, fmt.Errorf("scan conversation %d participant: %w", id, err)
		}
		c.ParticipantIDs = append(c.ParticipantIDs, participantID)
	}
	if err := rows.Err(); err != nil {
		return Conversation{}, fmt.Errorf("read conversation %d participants: %w", id, err)
	}

	return c, nil
}

// IsParticipant reports whether userID belongs to the conversation.
func (s *PostgresStore) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists bool

	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)`,
		conversationID, userID,
	).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("check participant %d in conversation %d: %w", userID, conversationID, err)
	}

	return exists, nil
}

// CreateMessage inserts a message row and returns it with the store-assigned
// id and timestamp. The row-level insert is the store's own concurrency
// boundary; no in-process lock is required around it.
func (s *PostgresStore) CreateMessage(ctx context.Context, conversationID, senderID int64, content string) (Message, error) {
	m := Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, sender_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		conversationID, senderID, content,
	).Scan(&m.ID, &m.Timestamp)

	if err != nil {
		return Message{}, fmt.Errorf("create message in conversation %d: %w", conversationID, err)
	}

	return m, nil
}
