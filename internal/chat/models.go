package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/users"
)

// Pair is a canonical participant pair: A sorts before B. It is the conversation dedup key.
type Pair struct {
	A string
	B string
}

func normalizeID(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

func NewPair(x, y string) Pair {
	x, y = normalizeID(x), normalizeID(y)
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

func (p Pair) Has(id string) bool {
	id = normalizeID(id)
	return id == p.A || id == p.B
}

// Other returns the participant that is not id.
func (p Pair) Other(id string) string {
	if normalizeID(id) == p.A {
		return p.B
	}
	return p.A
}

func (p Pair) MarshalJSON() ([]byte, error) { return json.Marshal([]string{p.A, p.B}) }

type Conversation struct {
	ID            string    `json:"id"`
	Participants  Pair      `json:"participants"`
	LastMessageID *string   `json:"lastMessageId,omitempty"`
	UnreadCount   int       `json:"unreadCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	RecipientID    string    `json:"recipientId"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// View is a conversation with participant summaries and its last message.
type View struct {
	Conversation
	ParticipantInfo []users.Summary `json:"participantInfo"`
	LastMessage     *Message        `json:"lastMessage,omitempty"`
}
