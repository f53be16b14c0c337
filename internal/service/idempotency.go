package service

import (
	"context"
	"sync"
	"time"
)

// IdempotencyGuard claims request keys so a repeated submission is detected
type IdempotencyGuard interface {
	// Claim returns false when key was already claimed and has not expired
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryGuard is an in-process IdempotencyGuard
type MemoryGuard struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryGuard creates an empty in-process guard
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (g *MemoryGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.expires {
		if !now.Before(exp) {
			delete(g.expires, k)
		}
	}
	if _, taken := g.expires[key]; taken {
		return false, nil
	}
	g.expires[key] = now.Add(ttl)
	return true, nil
}
