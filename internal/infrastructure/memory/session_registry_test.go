package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string { return "s" + strconv.FormatInt(g.n.Add(1), 10) }

func TestCreateAndGet(t *testing.T) {
	r := NewSessionRegistry(id.NewTokenGenerator())
	ctx := context.Background()

	s, err := r.Create(ctx, 3, 20)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Zero(t, s.Paid)
	assert.False(t, s.Confirmed)

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewSessionRegistry(&seqIDs{})
	ctx := context.Background()
	s, err := r.Create(ctx, 1, 10)
	require.NoError(t, err)

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	got.Paid = 999

	again, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Paid)
}

func TestMutateDiscardsOnError(t *testing.T) {
	r := NewSessionRegistry(&seqIDs{})
	ctx := context.Background()
	s, err := r.Create(ctx, 1, 10)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = r.Mutate(ctx, s.ID, func(s *domain.Session) error {
		s.Paid = 50
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Paid)

	_, err = r.Mutate(ctx, "missing", func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMutateSerializesPerSession(t *testing.T) {
	r := NewSessionRegistry(&seqIDs{})
	ctx := context.Background()
	s, err := r.Create(ctx, 1, 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Mutate(ctx, s.ID, func(s *domain.Session) error {
				return s.Insert(5)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, got.Paid)
}

func TestReapDropsOnlyStaleOpenSessions(t *testing.T) {
	r := NewSessionRegistry(&seqIDs{})
	ctx := context.Background()

	open, err := r.Create(ctx, 1, 10)
	require.NoError(t, err)
	done, err := r.Create(ctx, 1, 10)
	require.NoError(t, err)
	_, err = r.Mutate(ctx, done.ID, func(s *domain.Session) error {
		if err := s.Insert(10); err != nil {
			return err
		}
		return s.Confirm()
	})
	require.NoError(t, err)

	n, err := r.Reap(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = r.Reap(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Len())

	_, err = r.Get(ctx, open.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := r.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	r := NewSessionRegistry(fixedID("same"))
	ctx := context.Background()

	_, err := r.Create(ctx, 1, 10)
	require.NoError(t, err)
	_, err = r.Create(ctx, 1, 10)
	assert.Error(t, err)
}

type fixedID string

func (f fixedID) NewID() string { return string(f) }
