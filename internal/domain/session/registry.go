package session

import (
	"context"
	"time"
)

// MutateFunc edits a copy of the stored session. The copy replaces the stored
// session only when the function returns nil.
type MutateFunc func(s *Session) error

type Registry interface {
	Create(ctx context.Context, productID int64, price int64) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	// Mutate serializes fn with every other Mutate call on the same id.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*Session, error)
	// Reap drops unconfirmed sessions last touched before cutoff and returns how many went.
	Reap(ctx context.Context, cutoff time.Time) (int, error)
}
