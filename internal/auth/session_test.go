package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/util"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*MemorySessionStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemorySessionStore(ttl, discardLogger())
	store.now = clock.Now
	return store, clock
}

func TestMemorySessionStore_CreateAndValidate(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	session, err := store.Create(7)
	require.NoError(t, err)
	assert.Len(t, session.Token, 64)

	got, err := store.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
}

func TestMemorySessionStore_ValidateRejects(t *testing.T) {
	store, clock := newTestStore(time.Hour)
	session, err := store.Create(7)
	require.NoError(t, err)

	_, err = store.Validate("")
	assert.ErrorIs(t, err, util.ErrUnauthorized)
	_, err = store.Validate("unknown")
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	clock.Advance(time.Hour)
	_, err = store.Validate(session.Token)
	assert.ErrorIs(t, err, util.ErrUnauthorized, "expired at exactly ExpiresAt")
}

func TestMemorySessionStore_Renew(t *testing.T) {
	store, clock := newTestStore(time.Hour)
	session, err := store.Create(7)
	require.NoError(t, err)

	_, renewed := store.Renew(session.Token)
	assert.False(t, renewed, "fresh session is not renewed")

	clock.Advance(40 * time.Minute)
	got, renewed := store.Renew(session.Token)
	require.True(t, renewed)
	assert.Equal(t, clock.Now().Add(time.Hour), got.ExpiresAt)

	clock.Advance(50 * time.Minute)
	_, err = store.Validate(session.Token)
	assert.NoError(t, err, "renewed session outlives the original expiry")
}

func TestMemorySessionStore_RevokeIsIdempotent(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	session, err := store.Create(7)
	require.NoError(t, err)

	store.Revoke(session.Token)
	store.Revoke(session.Token)

	_, err = store.Validate(session.Token)
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}

func TestMemorySessionStore_Sweep(t *testing.T) {
	store, clock := newTestStore(time.Hour)
	_, err := store.Create(1)
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	live, err := store.Create(2)
	require.NoError(t, err)

	clock.Advance(45 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	_, err = store.Validate(live.Token)
	assert.NoError(t, err)
}

func TestMemorySessionStore_RunJanitorStopsOnCancel(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- store.RunJanitor(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestMemorySessionStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			s, err := store.Create(userID)
			if !assert.NoError(t, err) {
				return
			}
			_, err = store.Validate(s.Token)
			assert.NoError(t, err)
			store.Renew(s.Token)
			store.Revoke(s.Token)
		}(int64(i))
	}
	wg.Wait()
	assert.Equal(t, 0, store.Len())
}
