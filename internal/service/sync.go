package service

import (
	"context"
	"fmt"

	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Syncer applies changes written by other instances sharing the store
type Syncer struct {
	state  *State
	bus    store.Bus
	origin string
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncer creates a syncer that ignores changes stamped with origin
func NewSyncer(state *State, bus store.Bus, origin string) *Syncer {
	return &Syncer{
		state:  state,
		bus:    bus,
		origin: origin,
		logger: util.GetLogger(),
	}
}

// Start subscribes to the bus and reloads affected state in the background
func (s *Syncer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	changes, err := s.bus.Subscribe(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, changes)

	s.logger.Info("Syncer started", zap.String("origin", s.origin))
	return nil
}

func (s *Syncer) run(ctx context.Context, changes <-chan store.Change) {
	defer close(s.done)
	for change := range changes {
		if change.Origin == s.origin {
			continue
		}
		if s.state.Reload(ctx, change.Key) {
			s.logger.Debug("Reloaded state after external change",
				zap.String("key", change.Key),
				zap.String("origin", change.Origin))
		}
	}
}

// Stop unsubscribes and waits for the background loop to exit
func (s *Syncer) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("Syncer stopped")
}
