package storage

import (
	"context"
	"sync"
	"time"

	"neon-beat-back/internal/concurrency"
	"neon-beat-back/internal/logging"
)

const (
	initialBackoff        = 1 * time.Second
	maxBackoff            = 10 * time.Second
	healthPollInterval    = 5 * time.Second
	maxReconnectAttempts  = 3
)

// DegradedSink receives degraded-mode flips. internal/events.Bus
// implements it; kept as a narrow interface here so storage does not
// depend on the events package.
type DegradedSink interface {
	SetDegraded(degraded bool)
}

// Supervisor owns the current GameStore handle (nil when none is
// installed) and runs the connect/health-check/reconnect loop that keeps
// it alive, flipping degraded mode while no store is reachable.
type Supervisor struct {
	mu      sync.RWMutex
	store   GameStore
	connect Connector
	sink    DegradedSink
}

func NewSupervisor(connect Connector, sink DegradedSink) *Supervisor {
	return &Supervisor{connect: connect, sink: sink}
}

// Store returns the current store handle, or nil if none is installed.
func (s *Supervisor) Store() GameStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (s *Supervisor) setStore(store GameStore) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// Install hands the supervisor an already-connected store and clears
// degraded mode, bypassing the connect loop. Used when the backend is
// opened synchronously at startup and by tests.
func (s *Supervisor) Install(store GameStore) {
	s.setStore(store)
	s.sink.SetDegraded(false)
}

// Run drives the supervisor loop until ctx is cancelled. Intended to be
// launched via concurrency.GoSafe from main.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		store := s.connectWithBackoff(ctx)
		if store == nil {
			return // ctx cancelled while connecting
		}
		s.setStore(store)
		s.sink.SetDegraded(false)

		if !s.healthLoop(ctx, store) {
			return
		}
		// healthLoop returned because the store became unreconnectable;
		// drop it and restart the connect loop from scratch.
		s.setStore(nil)
		_ = store.Close()
	}
}

// connectWithBackoff retries connect with exponential backoff until it
// succeeds or ctx is cancelled.
func (s *Supervisor) connectWithBackoff(ctx context.Context) GameStore {
	delay := initialBackoff
	for {
		store, err := s.connect(ctx)
		if err == nil {
			return store
		}
		logging.Log.WithError(err).Warn("storage connect attempt failed, retrying")
		s.sink.SetDegraded(true)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
}

// healthLoop polls HealthCheck every healthPollInterval. On failure it
// enters degraded mode and attempts up to maxReconnectAttempts reconnects
// with their own backoff; on success it leaves degraded mode and keeps
// polling. It returns false if ctx was cancelled, true if reconnection
// was exhausted and the caller should restart the connect loop.
func (s *Supervisor) healthLoop(ctx context.Context, store GameStore) bool {
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if err := store.HealthCheck(ctx); err == nil {
				continue
			}
			logging.Log.Warn("storage health check failed, entering degraded mode")
			s.sink.SetDegraded(true)
			if s.reconnectWithBackoff(ctx, store) {
				s.sink.SetDegraded(false)
				continue
			}
			return true
		}
	}
}

// reconnectWithBackoff attempts up to maxReconnectAttempts TryReconnect
// calls with exponential backoff, returning true on first success.
func (s *Supervisor) reconnectWithBackoff(ctx context.Context, store GameStore) bool {
	delay := initialBackoff
	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		if err := store.TryReconnect(ctx); err == nil {
			return true
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return false
}

// Start launches Run in a panic-safe background goroutine.
func (s *Supervisor) Start(ctx context.Context) {
	concurrency.GoSafe(func() { s.Run(ctx) })
}
