package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
)

type IDGenerator interface {
	NewID() string
}

// SessionRegistry is a volatile session store. The map lock guards membership;
// each entry has its own lock that serializes Mutate calls on one session.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ids      IDGenerator
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
	removed bool
}

func NewSessionRegistry(ids IDGenerator) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*sessionEntry),
		ids:      ids,
	}
}

func (r *SessionRegistry) Create(ctx context.Context, productID int64, price int64) (*domain.Session, error) {
	_ = ctx

	id := r.ids.NewID()
	if id == "" {
		return nil, fmt.Errorf("session registry: empty id")
	}
	s, err := domain.New(id, productID, price)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, fmt.Errorf("session registry: duplicate id %s", id)
	}
	r.sessions[id] = &sessionEntry{session: s}
	return s.Clone(), nil
}

func (r *SessionRegistry) Get(ctx context.Context, id string) (*domain.Session, error) {
	_ = ctx

	e := r.entry(id)
	if e == nil {
		return nil, domain.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, domain.ErrNotFound
	}
	return e.session.Clone(), nil
}

func (r *SessionRegistry) Mutate(ctx context.Context, id string, fn domain.MutateFunc) (*domain.Session, error) {
	e := r.entry(id)
	if e == nil {
		return nil, domain.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, domain.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := e.session.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.session = working
	return working.Clone(), nil
}

func (r *SessionRegistry) Reap(ctx context.Context, cutoff time.Time) (int, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for id, e := range r.sessions {
		// A held entry lock means a request is using the session right now.
		if !e.mu.TryLock() {
			continue
		}
		if !e.session.Confirmed && e.session.UpdatedAt.Before(cutoff) {
			e.removed = true
			delete(r.sessions, id)
			reaped++
		}
		e.mu.Unlock()
	}
	return reaped, nil
}

// Len reports how many sessions are held.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) entry(id string) *sessionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}
