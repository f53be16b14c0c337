package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires REDIS_TEST_ADDR")
	}
	c, err := NewClient(addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.GetClient().FlushDB(context.Background())
		c.Close()
	})
	return c
}

func TestBlobRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, store.KeyShipping)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, store.KeyShipping, []byte("3000")))
	raw, ok, err := c.Get(ctx, store.KeyShipping)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3000", string(raw))

	require.NoError(t, c.Delete(ctx, store.KeyShipping))
	_, ok, err = c.Get(ctx, store.KeyShipping)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPublishSubscribe(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := c.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, store.Change{Key: store.KeyOrders, Origin: "tab-2"}))

	select {
	case got := <-changes:
		assert.Equal(t, store.Change{Key: store.KeyOrders, Origin: "tab-2"}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change received")
	}
}

func TestClaimIsOneShot(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	first, err := c.Claim(ctx, "checkout-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := c.Claim(ctx, "checkout-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)
}
