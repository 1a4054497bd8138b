package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const convColumns = `id, participant_a, participant_b, last_message_id, unread_count, created_at, updated_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.Participants.A, &c.Participants.B, &c.LastMessageID, &c.UnreadCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

func (r *Repo) FindByPair(ctx context.Context, p Pair) (Conversation, error) {
	return scanConversation(r.DB.QueryRow(ctx,
		`SELECT `+convColumns+` FROM conversations WHERE participant_a=$1 AND participant_b=$2`, p.A, p.B))
}

func (r *Repo) GetByID(ctx context.Context, id string) (Conversation, error) {
	if uuid.Validate(id) != nil {
		return Conversation{}, ErrNotFound
	}
	return scanConversation(r.DB.QueryRow(ctx, `SELECT `+convColumns+` FROM conversations WHERE id=$1`, id))
}

// Insert relies on UNIQUE(participant_a, participant_b): ON CONFLICT DO NOTHING makes it insert-if-absent.
func (r *Repo) Insert(ctx context.Context, c Conversation) error {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO conversations(id, participant_a, participant_b, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (participant_a, participant_b) DO NOTHING`,
		c.ID, c.Participants.A, c.Participants.B, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	existing, err := r.FindByPair(ctx, c.Participants)
	if err != nil {
		return &DuplicateError{}
	}
	return &DuplicateError{Existing: &existing}
}

func (r *Repo) ForceInsert(ctx context.Context, c Conversation) (string, error) {
	var id string
	err := r.DB.QueryRow(ctx, `
		INSERT INTO conversations(id, participant_a, participant_b, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (participant_a, participant_b) DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id`,
		c.ID, c.Participants.A, c.Participants.B, c.CreatedAt, c.UpdatedAt).Scan(&id)
	return id, err
}

func (r *Repo) ListForUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+convColumns+` FROM conversations
		WHERE participant_a=$1 OR participant_b=$1
		ORDER BY updated_at DESC`, normalizeID(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) AppendMessage(ctx context.Context, m Message) (Conversation, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Conversation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO messages(id, conversation_id, sender_id, recipient_id, content, read, created_at)
		VALUES ($1,$2,$3,$4,$5,FALSE,$6)`,
		m.ID, m.ConversationID, m.SenderID, m.RecipientID, m.Content, m.CreatedAt); err != nil {
		return Conversation{}, fmt.Errorf("insert message: %w", err)
	}
	c, err := scanConversation(tx.QueryRow(ctx, `
		UPDATE conversations SET last_message_id=$2, unread_count=unread_count+1, updated_at=$3
		WHERE id=$1
		RETURNING `+convColumns, m.ConversationID, m.ID, m.CreatedAt))
	if err != nil {
		return Conversation{}, err
	}
	return c, tx.Commit(ctx)
}

const messageColumns = `id, conversation_id, sender_id, recipient_id, content, read, created_at`

func scanMessages(rows pgx.Rows) ([]Message, error) {
	defer rows.Close()
	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.RecipientID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (r *Repo) LastMessages(ctx context.Context, ids []string) (map[string]Message, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+messageColumns+` FROM messages WHERE id::text = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	ms, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Message, len(ms))
	for _, m := range ms {
		out[m.ID] = m
	}
	return out, nil
}

func (r *Repo) MarkRead(ctx context.Context, conversationID, recipientID string) (int, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE messages SET read=TRUE WHERE conversation_id=$1 AND recipient_id=$2 AND NOT read`,
		conversationID, recipientID)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `UPDATE conversations SET unread_count=0 WHERE id=$1`, conversationID); err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), tx.Commit(ctx)
}

func (r *Repo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE recipient_id=$1 AND NOT read`, userID).Scan(&n)
	return n, err
}
