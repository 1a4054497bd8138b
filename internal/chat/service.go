package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
	"github.com/google/uuid"
)

const (
	EventNewMessage  = "new_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
	EventMessageSent = "message.sent"

	// Clients use temp- ids for conversations they have not created yet.
	tempPrefix = "temp-"
)

// Directory resolves users; a missing user yields an apperr NotFound error.
type Directory interface {
	Get(ctx context.Context, id string) (users.User, error)
	FindAdmin(ctx context.Context) (users.User, error)
}

// Notifier pushes best-effort real-time events to a connected user.
type Notifier interface {
	Emit(ctx context.Context, userID, event string, payload any) error
}

// Events publishes durable domain events.
type Events interface {
	Emit(ctx context.Context, key, eventType string, payload any) error
}

type Service struct {
	store    Store
	engine   *Engine
	users    Directory
	notifier Notifier
	events   Events
	now      func() time.Time
}

func NewService(store Store, engine *Engine, dir Directory, notifier Notifier, events Events) *Service {
	return &Service{store: store, engine: engine, users: dir, notifier: notifier, events: events, now: time.Now}
}

func convNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("conversation")
	}
	return err
}

// GetOrCreateConversation returns the single conversation between an admin and a seller.
func (s *Service) GetOrCreateConversation(ctx context.Context, userA, userB string) (View, bool, error) {
	a, err := s.users.Get(ctx, userA)
	if err != nil {
		return View{}, false, err
	}
	b, err := s.users.Get(ctx, userB)
	if err != nil {
		return View{}, false, err
	}
	if !adminSellerPair(a.Role, b.Role) {
		return View{}, false, apperr.Forbidden("conversations are only allowed between admin and seller")
	}

	c, created, err := s.engine.Resolve(ctx, NewPair(a.ID, b.ID))
	if err != nil {
		return View{}, false, err
	}
	views, err := s.views(ctx, []Conversation{c}, map[string]users.User{a.ID: a, b.ID: b})
	if err != nil {
		return View{}, false, err
	}
	return views[0], created, nil
}

func adminSellerPair(x, y auth.Role) bool {
	return (x == auth.RoleAdmin && y == auth.RoleSeller) || (x == auth.RoleSeller && y == auth.RoleAdmin)
}

// CreateConversation opens (or returns) the conversation between the actor and recipientID.
func (s *Service) CreateConversation(ctx context.Context, actor auth.Actor, recipientID string) (View, bool, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return View{}, false, apperr.Validation("recipientId is required")
	}
	if recipientID == actor.ID {
		return View{}, false, apperr.Validation("cannot start a conversation with yourself")
	}
	return s.GetOrCreateConversation(ctx, actor.ID, recipientID)
}

func (s *Service) ListMine(ctx context.Context, actor auth.Actor) ([]View, error) {
	cs, err := s.store.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, cs, nil)
}

// ConversationsByUser resolves selector ("me", "admin" or a user id) and lists matching conversations.
// Sellers only see conversations they take part in; asking for "admin" narrows to the one with the admin.
func (s *Service) ConversationsByUser(ctx context.Context, actor auth.Actor, selector string) ([]View, error) {
	selector = strings.TrimSpace(selector)
	switch selector {
	case "", "me":
		return s.ListMine(ctx, actor)
	case "admin":
		if actor.IsAdmin() {
			return s.ListMine(ctx, actor)
		}
		admin, err := s.users.FindAdmin(ctx)
		if err != nil {
			return nil, err
		}
		c, err := s.store.FindByPair(ctx, NewPair(actor.ID, admin.ID))
		if errors.Is(err, ErrNotFound) {
			return []View{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.views(ctx, []Conversation{c}, nil)
	}

	if normalizeID(selector) == normalizeID(actor.ID) {
		return s.ListMine(ctx, actor)
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("not authorized to view these conversations")
	}
	if _, err := s.users.Get(ctx, selector); err != nil {
		return nil, err
	}
	c, err := s.store.FindByPair(ctx, NewPair(actor.ID, selector))
	if errors.Is(err, ErrNotFound) {
		return []View{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.views(ctx, []Conversation{c}, nil)
}

// authorize loads the conversation and maps userID onto one of its participants.
func (s *Service) authorize(ctx context.Context, conversationID, userID string) (Conversation, string, error) {
	c, err := s.store.GetByID(ctx, conversationID)
	if err != nil {
		return Conversation{}, "", convNotFound(err)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return Conversation{}, "", err
	}
	if id, ok := IsParticipant(u, c, nil); ok {
		return c, id, nil
	}
	var members []users.User
	for _, id := range []string{c.Participants.A, c.Participants.B} {
		m, err := s.users.Get(ctx, id)
		if err != nil {
			break
		}
		members = append(members, m)
	}
	id, ok := IsParticipant(u, c, members)
	if !ok {
		return Conversation{}, "", apperr.Forbidden("not a participant of this conversation")
	}
	return c, id, nil
}

func (s *Service) SendMessage(ctx context.Context, conversationID, senderID, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, apperr.Validation("message content is required")
	}
	if strings.HasPrefix(conversationID, tempPrefix) {
		return Message{}, apperr.Validation("conversation has not been created yet")
	}
	c, self, err := s.authorize(ctx, conversationID, senderID)
	if err != nil {
		return Message{}, err
	}

	m := Message{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		SenderID:       self,
		RecipientID:    c.Participants.Other(self),
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	if _, err := s.store.AppendMessage(ctx, m); err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Emit(ctx, m.RecipientID, EventNewMessage, m); err != nil {
			slog.WarnContext(ctx, "push new message", "conversation_id", c.ID, "recipient_id", m.RecipientID, "err", err)
		}
	}
	if s.events != nil {
		if err := s.events.Emit(ctx, c.ID, EventMessageSent, m); err != nil {
			slog.WarnContext(ctx, "publish message event", "conversation_id", c.ID, "err", err)
		}
	}
	return m, nil
}

// GetMessages marks the requester's unread messages as read and returns the whole thread, oldest first.
func (s *Service) GetMessages(ctx context.Context, conversationID, requesterID string) ([]Message, error) {
	if strings.HasPrefix(conversationID, tempPrefix) {
		return []Message{}, nil
	}
	c, self, err := s.authorize(ctx, conversationID, requesterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.MarkRead(ctx, c.ID, self); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return s.store.ListMessages(ctx, c.ID)
}

func (s *Service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

type typingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// Typing relays a typing indicator to the other participant. Nothing is stored.
func (s *Service) Typing(ctx context.Context, conversationID, userID string, typing bool) error {
	c, self, err := s.authorize(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if s.notifier == nil {
		return nil
	}
	ev := EventStopTyping
	if typing {
		ev = EventTyping
	}
	if err := s.notifier.Emit(ctx, c.Participants.Other(self), ev, typingPayload{ConversationID: c.ID, UserID: self}); err != nil {
		slog.DebugContext(ctx, "push typing", "conversation_id", c.ID, "err", err)
	}
	return nil
}

// views attaches participant summaries and last messages. known seeds the user lookup.
func (s *Service) views(ctx context.Context, cs []Conversation, known map[string]users.User) ([]View, error) {
	cache := map[string]users.User{}
	for id, u := range known {
		cache[normalizeID(id)] = u
	}
	var lastIDs []string
	for _, c := range cs {
		if c.LastMessageID != nil {
			lastIDs = append(lastIDs, *c.LastMessageID)
		}
	}
	last := map[string]Message{}
	if len(lastIDs) > 0 {
		var err error
		if last, err = s.store.LastMessages(ctx, lastIDs); err != nil {
			return nil, err
		}
	}

	out := make([]View, 0, len(cs))
	for _, c := range cs {
		v := View{Conversation: c, ParticipantInfo: make([]users.Summary, 0, 2)}
		for _, id := range []string{c.Participants.A, c.Participants.B} {
			u, ok := cache[id]
			if !ok {
				var err error
				if u, err = s.users.Get(ctx, id); err != nil {
					slog.WarnContext(ctx, "participant lookup failed", "user_id", id, "err", err)
					continue
				}
				cache[id] = u
			}
			v.ParticipantInfo = append(v.ParticipantInfo, u.Summary())
		}
		if c.LastMessageID != nil {
			if m, ok := last[*c.LastMessageID]; ok {
				v.LastMessage = &m
			}
		}
		out = append(out, v)
	}
	return out, nil
}
