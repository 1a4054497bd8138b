package chat

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/users"
)

type memStore struct {
	mu       sync.Mutex
	convs    map[string]Conversation
	messages []Message

	// hideOnDuplicate makes the next n collisions report no existing row and hides it from
	// the following FindByPair, the pathological race the fallback tiers exist for.
	hideOnDuplicate int
	hidden          int
	inserts         int
}

func newMemStore() *memStore { return &memStore{convs: map[string]Conversation{}} }

func (m *memStore) findLocked(p Pair) (Conversation, bool) {
	for _, c := range m.convs {
		if c.Participants == p {
			return c, true
		}
	}
	return Conversation{}, false
}

func (m *memStore) FindByPair(ctx context.Context, p Pair) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hidden > 0 {
		m.hidden--
		return Conversation{}, ErrNotFound
	}
	if c, ok := m.findLocked(p); ok {
		return c, nil
	}
	return Conversation{}, ErrNotFound
}

func (m *memStore) GetByID(ctx context.Context, id string) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (m *memStore) Insert(ctx context.Context, c Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if existing, ok := m.findLocked(c.Participants); ok {
		if m.hideOnDuplicate > 0 {
			m.hideOnDuplicate--
			m.hidden++
			return &DuplicateError{}
		}
		return &DuplicateError{Existing: &existing}
	}
	m.convs[c.ID] = c
	return nil
}

func (m *memStore) ForceInsert(ctx context.Context, c Conversation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.findLocked(c.Participants); ok {
		return existing.ID, nil
	}
	m.convs[c.ID] = c
	return c.ID, nil
}

func (m *memStore) ListForUser(ctx context.Context, userID string) ([]Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Conversation{}
	for _, c := range m.convs {
		if c.Participants.Has(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) AppendMessage(ctx context.Context, msg Message) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[msg.ConversationID]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	m.messages = append(m.messages, msg)
	id := msg.ID
	c.LastMessageID = &id
	c.UnreadCount++
	c.UpdatedAt = msg.CreatedAt
	m.convs[c.ID] = c
	return c, nil
}

func (m *memStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Message{}
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) LastMessages(ctx context.Context, ids []string) (map[string]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]Message{}
	for _, msg := range m.messages {
		for _, id := range ids {
			if msg.ID == id {
				out[id] = msg
			}
		}
	}
	return out, nil
}

func (m *memStore) MarkRead(ctx context.Context, conversationID, recipientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ConversationID == conversationID && msg.RecipientID == recipientID && !msg.Read {
			msg.Read = true
			n++
		}
	}
	if c, ok := m.convs[conversationID]; ok {
		c.UnreadCount = 0
		m.convs[conversationID] = c
	}
	return n, nil
}

func (m *memStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.RecipientID == userID && !msg.Read {
			n++
		}
	}
	return n, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.convs)
}

type stubDirectory map[string]users.User

func (d stubDirectory) Get(ctx context.Context, id string) (users.User, error) {
	if u, ok := d[normalizeID(id)]; ok {
		return u, nil
	}
	return users.User{}, apperr.NotFound("user")
}

func (d stubDirectory) FindAdmin(ctx context.Context) (users.User, error) {
	for _, u := range d {
		if u.Role == auth.RoleAdmin {
			return u, nil
		}
	}
	return users.User{}, apperr.NotFound("admin")
}

type pushed struct {
	UserID, Event string
	Payload       any
}

type stubNotifier struct {
	mu     sync.Mutex
	pushed []pushed
	fail   bool
}

func (n *stubNotifier) Emit(ctx context.Context, userID, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("transport down")
	}
	n.pushed = append(n.pushed, pushed{UserID: userID, Event: event, Payload: payload})
	return nil
}

// memReserver is an in-process stand-in for the Redis SETNX reservation.
type memReserver struct {
	mu   sync.Mutex
	held map[Pair]bool
}

func (r *memReserver) Reserve(ctx context.Context, p Pair) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held == nil {
		r.held = map[Pair]bool{}
	}
	if r.held[p] {
		return false, nil
	}
	r.held[p] = true
	return true, nil
}

func (r *memReserver) Release(ctx context.Context, p Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, p)
}

const (
	adminID   = "0a000000-0000-0000-0000-000000000001"
	sellerID  = "5e000000-0000-0000-0000-000000000002"
	seller2ID = "5e000000-0000-0000-0000-000000000003"
	admin2ID  = "0a000000-0000-0000-0000-000000000004"
)

func directory() stubDirectory {
	return stubDirectory{
		adminID:   {ID: adminID, Name: "Admin", Email: "admin@x.io", Role: auth.RoleAdmin, Approved: true},
		sellerID:  {ID: sellerID, Name: "Seller", Email: "seller@x.io", Role: auth.RoleSeller, Approved: true, ShopName: "S1"},
		seller2ID: {ID: seller2ID, Name: "Seller Two", Email: "two@x.io", Role: auth.RoleSeller, Approved: true},
	}
}
