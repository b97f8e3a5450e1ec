package session

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when a verification is already pending for the key.
var ErrBusy = errors.New("session: verification already in progress")

// Gate admits at most one pending verification per key.
type Gate interface {
	// Acquire claims key. The returned release must be called once the
	// verification finishes; Acquire returns ErrBusy while a claim is held.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGate is a Gate for a single process.
type MemoryGate struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{busy: make(map[string]struct{})}
}

func (g *MemoryGate) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.busy[key]; held {
		return nil, ErrBusy
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}
