package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type sample struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

func TestReadJSONFallbacks(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	fallback := []sample{{Name: "default"}}

	assert.Equal(t, fallback, ReadJSON(ctx, kv, "missing", fallback))

	require.NoError(t, kv.Set(ctx, "null", []byte("null")))
	assert.Equal(t, fallback, ReadJSON(ctx, kv, "null", fallback))

	require.NoError(t, kv.Set(ctx, "corrupt", []byte("{not json")))
	assert.Equal(t, fallback, ReadJSON(ctx, kv, "corrupt", fallback))

	require.NoError(t, kv.Set(ctx, "wrong-shape", []byte(`{"name":"x"}`)))
	assert.Equal(t, fallback, ReadJSON(ctx, kv, "wrong-shape", fallback))
}

func TestWriteThenReadJSON(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	require.NoError(t, WriteJSON(ctx, kv, "items", []sample{{Name: "TC001", Qty: 2}}))

	got := ReadJSON[[]sample](ctx, kv, "items", nil)
	assert.Equal(t, []sample{{Name: "TC001", Qty: 2}}, got)

	require.NoError(t, kv.Delete(ctx, "items"))
	_, ok, err := kv.Get(ctx, "items")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart", CartKey(""))
	assert.Equal(t, "cart_ana@duoc.cl", CartKey(" Ana@DUOC.cl "))
	assert.True(t, IsCartKey("cart"))
	assert.True(t, IsCartKey("cart_ana@duoc.cl"))
	assert.False(t, IsCartKey("couponCode_v1"))
}

func TestSQLStoreWithSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLStore("sqlite", filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyOrders, []byte(`[{"id":"PED1"}]`)))
	require.NoError(t, s.Set(ctx, KeyOrders, []byte(`[{"id":"PED2"}]`)))

	raw, ok, err := s.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"PED2"}]`, string(raw))

	require.NoError(t, s.Delete(ctx, KeyOrders))
	_, ok, err = s.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotifyingKVPublishesWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	bus := NewMemoryBus()
	changes, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	kv := NewNotifyingKV(NewMemory(), bus, "tab-1")
	require.NoError(t, kv.Set(ctx, KeyCoupon, []byte(`"5000OFF"`)))
	require.NoError(t, kv.Delete(ctx, KeyCurrentUser))

	for _, want := range []string{KeyCoupon, KeyCurrentUser} {
		select {
		case c := <-changes:
			assert.Equal(t, Change{Key: want, Origin: "tab-1"}, c)
		case <-time.After(time.Second):
			t.Fatalf("no change received for %s", want)
		}
	}

	cancel()
	for range changes {
	}
}
