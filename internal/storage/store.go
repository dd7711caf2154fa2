// Package storage defines the abstract GameStore capability interface and
// the supervisor that keeps a concrete implementation connected, flipping
// degraded mode when it is not.
package storage

import (
	"context"

	"github.com/google/uuid"

	"neon-beat-back/internal/model"
)

// GameListItem is the lightweight projection returned by ListGames; full
// hydration happens on demand via FindGame.
type GameListItem struct {
	ID   uuid.UUID
	Name string
}

type PlaylistListItem struct {
	ID   uuid.UUID
	Name string
}

// GameStore is the storage capability set the session store and supervisor
// depend on. A concrete implementation (see sqlitestore) backs it with a
// real database; the supervisor only ever sees this interface.
type GameStore interface {
	SaveGame(ctx context.Context, session *model.GameSession) error
	SavePlaylist(ctx context.Context, playlist *model.Playlist) error
	FindGame(ctx context.Context, id uuid.UUID) (*model.GameSession, error)
	FindPlaylist(ctx context.Context, id uuid.UUID) (*model.Playlist, error)
	ListGames(ctx context.Context) ([]GameListItem, error)
	ListPlaylists(ctx context.Context) ([]PlaylistListItem, error)
	DeleteGame(ctx context.Context, id uuid.UUID) (bool, error)
	SaveTeam(ctx context.Context, gameID uuid.UUID, team *model.Team) error
	DeleteTeam(ctx context.Context, gameID, teamID uuid.UUID) error

	HealthCheck(ctx context.Context) error
	TryReconnect(ctx context.Context) error
	Close() error
}

// Connector opens a fresh GameStore, used by the supervisor's connect loop.
// Kept distinct from GameStore.HealthCheck so a from-scratch reconnect can
// re-dial (e.g. re-open the sqlite file / pool) rather than just probing
// an existing handle.
type Connector func(ctx context.Context) (GameStore, error)
