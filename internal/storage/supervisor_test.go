package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"neon-beat-back/internal/model"
)

type fakeSink struct {
	mu     sync.Mutex
	values []bool
}

func (f *fakeSink) SetDegraded(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, v)
}

func (f *fakeSink) last() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.values) == 0 {
		return false, false
	}
	return f.values[len(f.values)-1], true
}

type fakeStore struct {
	healthy atomic.Bool
}

func (s *fakeStore) SaveGame(ctx context.Context, session *model.GameSession) error { return nil }
func (s *fakeStore) SavePlaylist(ctx context.Context, p *model.Playlist) error      { return nil }
func (s *fakeStore) FindGame(ctx context.Context, id uuid.UUID) (*model.GameSession, error) {
	return nil, nil
}
func (s *fakeStore) FindPlaylist(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	return nil, nil
}
func (s *fakeStore) ListGames(ctx context.Context) ([]GameListItem, error)         { return nil, nil }
func (s *fakeStore) ListPlaylists(ctx context.Context) ([]PlaylistListItem, error) { return nil, nil }
func (s *fakeStore) DeleteGame(ctx context.Context, id uuid.UUID) (bool, error)    { return false, nil }
func (s *fakeStore) SaveTeam(ctx context.Context, gameID uuid.UUID, t *model.Team) error {
	return nil
}
func (s *fakeStore) DeleteTeam(ctx context.Context, gameID, teamID uuid.UUID) error { return nil }
func (s *fakeStore) Close() error                                                  { return nil }
func (s *fakeStore) HealthCheck(ctx context.Context) error {
	if s.healthy.Load() {
		return nil
	}
	return errors.New("unhealthy")
}
func (s *fakeStore) TryReconnect(ctx context.Context) error { return s.HealthCheck(ctx) }

func TestSupervisorEntersDegradedOnHealthFailure(t *testing.T) {
	store := &fakeStore{}
	store.healthy.Store(true)

	sink := &fakeSink{}
	sup := NewSupervisor(func(ctx context.Context) (GameStore, error) { return store, nil }, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	// wait for initial "not degraded" flip
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := sink.last(); ok && !v {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	store.healthy.Store(false)

	deadline = time.Now().Add(10 * time.Second)
	sawDegraded := false
	for time.Now().Before(deadline) {
		if v, ok := sink.last(); ok && v {
			sawDegraded = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !sawDegraded {
		t.Fatalf("expected supervisor to flip to degraded after health check failures")
	}
}
