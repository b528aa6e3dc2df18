package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/storefront/cart"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC)}
}

func TestOpenAndGet(t *testing.T) {
	clk := newClock()
	r := NewRegistry(WithClock(clk.Now), WithTTL(time.Hour))

	s, err := r.Open("s1")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), s.ExpiresAt)
	require.NotNil(t, s.Cart)
	assert.Equal(t, 1, s.Cart.Snapshot().PendingQuantity)

	got, err := r.Get("s1")
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestOpenReturnsLiveSession(t *testing.T) {
	r := NewRegistry()
	first, err := r.Open("s1")
	require.NoError(t, err)
	_, err = first.Cart.Add(cart.Product{ID: "a", Name: "A", Price: decimal.NewNullDecimal(decimal.NewFromInt(3))}, 1)
	require.NoError(t, err)

	again, err := r.Open("s1")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, again.Cart.Len())
}

func TestOpenRejectsBlankID(t *testing.T) {
	_, err := NewRegistry().Open("  ")
	assert.Error(t, err)
}

func TestGetUnknownAndExpired(t *testing.T) {
	clk := newClock()
	r := NewRegistry(WithClock(clk.Now), WithTTL(time.Minute))

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = r.Open("s1")
	require.NoError(t, err)
	clk.Advance(time.Minute)

	_, err = r.Get("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiredSessionReopensEmpty(t *testing.T) {
	clk := newClock()
	r := NewRegistry(WithClock(clk.Now), WithTTL(time.Minute))
	old, _ := r.Open("s1")

	clk.Advance(2 * time.Minute)
	fresh, err := r.Open("s1")

	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
}

func TestSweepAndClose(t *testing.T) {
	clk := newClock()
	var closed []string
	r := NewRegistry(
		WithClock(clk.Now),
		WithTTL(time.Hour),
		WithOnClose(func(id string) { closed = append(closed, id) }),
	)
	_, _ = r.Open("old")
	clk.Advance(30 * time.Minute)
	_, _ = r.Open("new")

	assert.Equal(t, 1, r.Sweep(clk.Now().Add(45*time.Minute)))
	assert.Equal(t, []string{"old"}, closed)
	assert.Equal(t, 1, r.Len())

	r.Close("new")
	r.Close("new")
	assert.Equal(t, []string{"old", "new"}, closed, "closing twice runs the hook once")
	assert.Zero(t, r.Len())
}

func TestStoreFactory(t *testing.T) {
	var ids []string
	r := NewRegistry(WithStoreFactory(func(id string) *cart.Store {
		ids = append(ids, id)
		return cart.NewStore()
	}))

	_, _ = r.Open("a")
	_, _ = r.Open("b")

	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	clk := newClock()
	r := NewRegistry(WithClock(clk.Now), WithTTL(time.Second))
	_, _ = r.Open("s1")
	clk.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
