package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Event is what a stream subscriber receives.
type Event struct {
	UserID     string          `json:"user_id"`
	Event      string          `json:"event"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

const subscriberBuffer = 32

// Hub fans events out to the streams of a user. Delivery is at most once: offline users and
// slow subscribers miss events, and nothing is replayed.
//
// With a Redis client, Emit publishes on rt:user:<id> and Run relays the channel to local
// subscribers, so any instance (or the notifier process) can reach a stream held elsewhere.
// Without one, Emit delivers in-process.
type Hub struct {
	presence Presence
	redis    *redis.Client
	log      *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub(presence Presence, rdb *redis.Client) *Hub {
	return &Hub{
		presence: presence,
		redis:    rdb,
		log:      slog.Default().With("component", "realtime-hub"),
		subs:     map[string]map[*Subscription]struct{}{},
	}
}

type Subscription struct {
	C <-chan Event

	ch     chan Event
	userID string
	hub    *Hub
	once   sync.Once
}

func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	s := &Subscription{C: ch, ch: ch, userID: userID, hub: h}
	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = map[*Subscription]struct{}{}
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Close detaches the subscription and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if set := h.subs[s.userID]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.userID)
			}
		}
		h.mu.Unlock()
		close(s.ch)
	})
}

// Emit pushes event to userID if they are online. An offline user is not an error.
func (h *Hub) Emit(ctx context.Context, userID, event string, payload any) error {
	if h.presence != nil {
		online, err := h.presence.IsOnline(ctx, userID)
		if err != nil {
			return fmt.Errorf("presence: %w", err)
		}
		if !online {
			h.log.DebugContext(ctx, "user offline, event dropped", "user_id", userID, "event", event)
			return nil
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	ev := Event{UserID: userID, Event: event, Data: data, OccurredAt: time.Now().UTC()}

	if h.redis == nil {
		h.deliver(ev)
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, fmt.Sprintf(redisx.ChannelUser, userID), b).Err()
}

// Run relays published events to local subscribers until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.redis == nil {
		<-ctx.Done()
		return nil
	}
	ps := h.redis.PSubscribe(ctx, redisx.ChannelUserPattern)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe: %w", err)
	}
	h.log.Info("hub subscribed", "pattern", redisx.ChannelUserPattern)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.log.Warn("bad hub message", "channel", msg.Channel, "err", err)
				continue
			}
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.UserID] {
		select {
		case s.ch <- ev:
		default:
			h.log.Warn("subscriber lagging, event dropped", "user_id", ev.UserID, "event", ev.Event)
		}
	}
}
