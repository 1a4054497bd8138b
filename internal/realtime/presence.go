package realtime

import (
	"context"
	"sync"
)

// Presence tracks which users hold at least one live connection.
type Presence interface {
	Register(ctx context.Context, userID, connID string) error
	Unregister(ctx context.Context, connID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// MemoryPresence is process-local; use it when a single API instance serves every stream.
type MemoryPresence struct {
	mu    sync.Mutex
	conns map[string]string
	users map[string]map[string]struct{}
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{conns: map[string]string{}, users: map[string]map[string]struct{}{}}
}

func (p *MemoryPresence) Register(_ context.Context, userID, connID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[connID] = userID
	set, ok := p.users[userID]
	if !ok {
		set = map[string]struct{}{}
		p.users[userID] = set
	}
	set[connID] = struct{}{}
	return nil
}

func (p *MemoryPresence) Unregister(_ context.Context, connID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID, ok := p.conns[connID]
	if !ok {
		return nil
	}
	delete(p.conns, connID)
	if set := p.users[userID]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(p.users, userID)
		}
	}
	return nil
}

func (p *MemoryPresence) IsOnline(_ context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users[userID]) > 0, nil
}
