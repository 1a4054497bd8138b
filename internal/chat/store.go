package chat

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("conversation not found")

// DuplicateError reports that a conversation for the pair already exists.
// Existing is nil when the colliding row could not be read back.
type DuplicateError struct{ Existing *Conversation }

func (e *DuplicateError) Error() string { return "conversation already exists for this pair" }

type Store interface {
	FindByPair(ctx context.Context, p Pair) (Conversation, error)
	GetByID(ctx context.Context, id string) (Conversation, error)
	// Insert is an atomic insert-if-absent on the pair; a collision returns *DuplicateError.
	Insert(ctx context.Context, c Conversation) error
	// ForceInsert writes c or, on collision, keeps the existing row; it returns the id of the row that survived.
	ForceInsert(ctx context.Context, c Conversation) (string, error)
	// ListForUser returns conversations containing userID, most recently active first.
	ListForUser(ctx context.Context, userID string) ([]Conversation, error)

	// AppendMessage stores m and bumps the conversation's last message, unread count and updated_at together.
	AppendMessage(ctx context.Context, m Message) (Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	LastMessages(ctx context.Context, messageIDs []string) (map[string]Message, error)
	// MarkRead flags messages addressed to recipientID as read and resets the unread count.
	MarkRead(ctx context.Context, conversationID, recipientID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}
