package session

import (
	"context"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/id"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesIdleOpenSessions(t *testing.T) {
	ctx := context.Background()
	reg := memory.NewSessionRegistry(id.NewTokenGenerator())
	idle, err := reg.Create(ctx, 1, 10)
	require.NoError(t, err)

	r := NewReaper(reg, time.Minute, time.Second, nil)
	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	r.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	n, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = reg.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDisabledReaperDoesNothing(t *testing.T) {
	ctx := context.Background()
	reg := memory.NewSessionRegistry(id.NewTokenGenerator())
	_, err := reg.Create(ctx, 1, 10)
	require.NoError(t, err)

	r := NewReaper(reg, 0, time.Millisecond, nil)
	r.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.False(t, r.Enabled())

	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, reg.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	reg := memory.NewSessionRegistry(id.NewTokenGenerator())
	r := NewReaper(reg, time.Millisecond, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	_, err := reg.Create(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
