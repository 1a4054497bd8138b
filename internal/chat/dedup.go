package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/google/uuid"
)

// Engine guarantees at most one conversation per pair.
//
// A pair moves Absent -> Reserved -> Committed. The reservation is an optional fast path
// that keeps concurrent creators off the insert; correctness rests on Store.Insert being an
// atomic insert-if-absent. Collisions fall back to a delayed re-query, then a forced insert
// followed by a re-fetch.
type Engine struct {
	store      Store
	reserver   Reserver
	retryDelay time.Duration
	waitRounds int
	now        func() time.Time
}

func NewEngine(store Store, reserver Reserver, retryDelay time.Duration) *Engine {
	if retryDelay <= 0 {
		retryDelay = 100 * time.Millisecond
	}
	return &Engine{store: store, reserver: reserver, retryDelay: retryDelay, waitRounds: 5, now: time.Now}
}

// Resolve returns the pair's conversation, creating it when absent.
func (e *Engine) Resolve(ctx context.Context, p Pair) (Conversation, bool, error) {
	c, err := e.store.FindByPair(ctx, p)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Conversation{}, false, fmt.Errorf("find conversation: %w", err)
	}

	if e.reserver != nil {
		ok, err := e.reserver.Reserve(ctx, p)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "conversation reservation unavailable", "err", err)
		case ok:
			defer e.reserver.Release(context.WithoutCancel(ctx), p)
		default:
			if c, ok := e.awaitCommit(ctx, p); ok {
				return c, false, nil
			}
			// holder gave up or its reservation expired; the guarded insert still decides
		}
	}

	now := e.now().UTC()
	c = Conversation{ID: uuid.NewString(), Participants: p, CreatedAt: now, UpdatedAt: now}
	err = e.store.Insert(ctx, c)
	if err == nil {
		slog.InfoContext(ctx, "conversation created", "conversation_id", c.ID, "participant_a", p.A, "participant_b", p.B)
		return c, true, nil
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return Conversation{}, false, fmt.Errorf("insert conversation: %w", err)
	}
	if dup.Existing != nil {
		return *dup.Existing, false, nil
	}

	if err := e.sleep(ctx); err != nil {
		return Conversation{}, false, err
	}
	if existing, err := e.store.FindByPair(ctx, p); err == nil {
		return existing, false, nil
	}

	slog.WarnContext(ctx, "conversation still missing after duplicate, forcing insert", "participant_a", p.A, "participant_b", p.B)
	id, err := e.store.ForceInsert(ctx, c)
	if err == nil {
		if got, err := e.store.GetByID(ctx, id); err == nil {
			return got, id == c.ID, nil
		}
	}
	return Conversation{}, false, apperr.Conflict("could not create conversation, please retry")
}

func (e *Engine) awaitCommit(ctx context.Context, p Pair) (Conversation, bool) {
	for i := 0; i < e.waitRounds; i++ {
		if e.sleep(ctx) != nil {
			return Conversation{}, false
		}
		if c, err := e.store.FindByPair(ctx, p); err == nil {
			return c, true
		}
	}
	return Conversation{}, false
}

func (e *Engine) sleep(ctx context.Context) error {
	t := time.NewTimer(e.retryDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
