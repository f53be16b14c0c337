package store

import (
	"context"
	"sync"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// Change announces that the blob under Key was written by Origin
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Bus carries change notifications between storefront instances sharing a KV
type Bus interface {
	Publish(ctx context.Context, change Change) error
	// Subscribe delivers changes until ctx is done, then closes the channel
	Subscribe(ctx context.Context) (<-chan Change, error)
}

const subscriberBuffer = 64

// MemoryBus fans changes out to in-process subscribers
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

// NewMemoryBus creates an in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]chan Change)}
}

// Publish delivers the change to every subscriber; full subscribers miss it
func (b *MemoryBus) Publish(_ context.Context, change Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- change:
		default:
			util.GetLogger().Warn("Dropping change notification for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("key", change.Key))
		}
	}
	return nil
}

// Subscribe registers a subscriber for the lifetime of ctx
func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// NotifyingKV publishes a Change after every successful write to the wrapped KV
type NotifyingKV struct {
	KV
	bus    Bus
	origin string
	logger *zap.Logger
}

// NewNotifyingKV wraps kv so writes are announced on bus under origin
func NewNotifyingKV(kv KV, bus Bus, origin string) *NotifyingKV {
	return &NotifyingKV{
		KV:     kv,
		bus:    bus,
		origin: origin,
		logger: util.GetLogger(),
	}
}

// Origin returns the identity stamped on published changes
func (n *NotifyingKV) Origin() string {
	return n.origin
}

func (n *NotifyingKV) Set(ctx context.Context, key string, value []byte) error {
	if err := n.KV.Set(ctx, key, value); err != nil {
		return err
	}
	n.publish(ctx, key)
	return nil
}

func (n *NotifyingKV) Delete(ctx context.Context, key string) error {
	if err := n.KV.Delete(ctx, key); err != nil {
		return err
	}
	n.publish(ctx, key)
	return nil
}

func (n *NotifyingKV) publish(ctx context.Context, key string) {
	if err := n.bus.Publish(ctx, Change{Key: key, Origin: n.origin}); err != nil {
		n.logger.Warn("Failed to publish change notification",
			zap.String("key", key),
			zap.Error(err))
	}
}
