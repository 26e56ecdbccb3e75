package inbox

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements MessageStore on the messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ MessageStore = (*PostgresStore)(nil)

const messageColumns = `id, conversation_id, sender_id, receiver_id, text, created_at, is_read, is_sent, removed_from_convo`

func scanMessage(row pgx.Row) (*Message, error) {
	m := &Message{}
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Text,
		&m.CreatedAt, &m.IsRead, &m.IsSent, &m.RemovedFromConvo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.RemovedFromConvo == nil {
		m.RemovedFromConvo = []string{}
	}
	return m, nil
}

func (s *PostgresStore) collect(rows pgx.Rows) ([]*Message, error) {
	defer rows.Close()
	var msgs []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *PostgresStore) Insert(ctx context.Context, m *Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, text, created_at, is_read, is_sent)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING id
	`, m.ConversationID, m.SenderID, m.ReceiverID, m.Text, m.CreatedAt, m.IsSent).Scan(&m.ID)
}

func (s *PostgresStore) VisibleByConversation(ctx context.Context, conversationID, userID string) ([]*Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1 AND NOT ($2 = ANY(removed_from_convo))
		ORDER BY created_at ASC, id ASC
	`, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *PostgresStore) VisibleByUser(ctx context.Context, userID string) ([]*Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = $1 OR receiver_id = $1) AND NOT ($1 = ANY(removed_from_convo))
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *PostgresStore) LastInConversation(ctx context.Context, conversationID string) (*Message, error) {
	return scanMessage(s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, conversationID))
}

func (s *PostgresStore) CountUnread(ctx context.Context, conversationID, receiverID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_read = FALSE
	`, conversationID, receiverID).Scan(&n)
	return n, err
}

func (s *PostgresStore) MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_read = FALSE
	`, conversationID, receiverID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) AnyReceivedBy(ctx context.Context, conversationID, receiverID string) (*Message, error) {
	return scanMessage(s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1 AND receiver_id = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, conversationID, receiverID))
}

func (s *PostgresStore) MarkRemoved(ctx context.Context, conversationID, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET removed_from_convo = array_append(removed_from_convo, $2)
		WHERE conversation_id = $1 AND NOT ($2 = ANY(removed_from_convo))
	`, conversationID, userID)
	return err
}

func (s *PostgresStore) AllRemovedByBoth(ctx context.Context, conversationID string) (bool, error) {
	var total, pending int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT (sender_id = ANY(removed_from_convo)
		                                   AND receiver_id = ANY(removed_from_convo)))
		FROM messages
		WHERE conversation_id = $1
	`, conversationID).Scan(&total, &pending)
	if err != nil {
		return false, err
	}
	return total > 0 && pending == 0, nil
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, conversationID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID)
	return err
}

// DeleteBetween purges the thread between two users, whichever order they are
// given in. Used when one user blocks the other.
func (s *PostgresStore) DeleteBetween(ctx context.Context, userA, userB string) error {
	return s.DeleteConversation(ctx, ConversationID(userA, userB))
}

// DeleteByUser removes every message the user sent or received. Used on
// account deletion.
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`, userID)
	return err
}
