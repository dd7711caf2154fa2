// Package session holds the single authoritative *model.GameSession slot
// and the coarse, invariant-preserving mutation operations over it. All
// access goes through Store under a single-writer/multi-reader lock.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/storage"
)

// Store owns the single in-process GameSession slot (nil when no game is
// loaded).
type Store struct {
	mu      sync.RWMutex
	session *model.GameSession
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a deep-enough clone of the current session for
// serialization, or nil if no game is loaded.
func (s *Store) Snapshot() *model.GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// withWriteLock runs fn against the live session while holding the write
// lock, failing with InvalidState when no game is loaded. It backs every
// mutating Store method; callers outside this package use Snapshot or
// those methods instead.
func (s *Store) withWriteLock(fn func(*model.GameSession) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return apperrors.InvalidState("no game is currently loaded")
	}
	return fn(s.session)
}

// LoadOrCreate installs session as the active game, replacing any
// previous one. Precondition (checked by the caller via RunTransition):
// the outer phase must be Idle.
func (s *Store) LoadOrCreate(newSession *model.GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = newSession
}

// Clear removes the active session, used on EndGame.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// StartSong advances the current song index and resets discovery state.
func (s *Store) StartSong(i int) error {
	return s.withWriteLock(func(g *model.GameSession) error {
		if i < 0 || i >= len(g.PlaylistSongOrder) {
			return apperrors.InvalidInput("song index out of range")
		}
		g.StartSong(i)
		return nil
	})
}

// MarkField records key as found for kind in the current song. Returns
// (changed, error); changed is true only when key was newly recorded, so a
// repeat call returns (false, nil) and callers can skip broadcasting
// fields_found, while an undeclared key returns an error.
func (s *Store) MarkField(kind model.FieldKind, key string) (bool, error) {
	var changed bool
	err := s.withWriteLock(func(g *model.GameSession) error {
		before := len(g.FoundPointFields) + len(g.FoundBonusFields)
		if !g.MarkFound(kind, key) {
			return apperrors.InvalidInput("field not declared for current song")
		}
		after := len(g.FoundPointFields) + len(g.FoundBonusFields)
		changed = after != before
		return nil
	})
	return changed, err
}

// AdjustScore adds delta to the team bound to buzzerID's score.
func (s *Store) AdjustScore(buzzerID string, delta int32) (*model.Team, error) {
	var result *model.Team
	err := s.withWriteLock(func(g *model.GameSession) error {
		team, ok := g.Teams.FindByBuzzer(buzzerID)
		if !ok {
			return apperrors.NotFound("no team bound to that buzzer")
		}
		team.Score += delta
		team.UpdatedAt = time.Now()
		result = team.Clone()
		return nil
	})
	return result, err
}

// CreateTeam appends a new team bound to buzzerID, used by the buzzer
// protocol's Prep(Ready) auto-creation rule.
func (s *Store) CreateTeam(name, buzzerID string, color model.TeamColor) (*model.Team, error) {
	var created *model.Team
	err := s.withWriteLock(func(g *model.GameSession) error {
		t := &model.Team{ID: uuid.New(), BuzzerID: buzzerID, Name: name, Color: color, UpdatedAt: time.Now()}
		g.Teams.Add(t)
		created = t.Clone()
		return nil
	})
	return created, err
}

// AssignBuzzer binds buzzerID to teamID, stealing it away from whichever
// other team currently holds it (at most one team may hold a given buzzer
// at a time). Used by the pairing workflow and returns the updated team.
func (s *Store) AssignBuzzer(teamID uuid.UUID, buzzerID string) (*model.Team, error) {
	var result *model.Team
	err := s.withWriteLock(func(g *model.GameSession) error {
		team, ok := g.Teams.Get(teamID)
		if !ok {
			return apperrors.NotFound("no such team")
		}
		if prior, held := g.Teams.FindByBuzzer(buzzerID); held && prior.ID != teamID {
			prior.BuzzerID = ""
			prior.UpdatedAt = time.Now()
		}
		team.BuzzerID = buzzerID
		team.UpdatedAt = time.Now()
		result = team.Clone()
		return nil
	})
	return result, err
}

// UpdateTeam applies a partial update (name, color) to a team.
func (s *Store) UpdateTeam(id uuid.UUID, name *string, color *model.TeamColor) (*model.Team, error) {
	var result *model.Team
	err := s.withWriteLock(func(g *model.GameSession) error {
		team, ok := g.Teams.Get(id)
		if !ok {
			return apperrors.NotFound("team not found")
		}
		if name != nil {
			if strings.TrimSpace(*name) == "" {
				return apperrors.InvalidInput("team name must not be empty")
			}
			team.Name = *name
		}
		if color != nil {
			team.Color = *color
		}
		team.UpdatedAt = time.Now()
		result = team.Clone()
		return nil
	})
	return result, err
}

// RestoreRoster replaces the active session's teams with snapshot,
// used when a pairing workflow is aborted.
func (s *Store) RestoreRoster(snapshot []*model.Team) error {
	return s.withWriteLock(func(g *model.GameSession) error {
		restored := model.NewTeamSet()
		for _, t := range snapshot {
			restored.Add(t.Clone())
		}
		g.Teams = restored
		return nil
	})
}

// DeleteTeamByID removes a team from the active session.
func (s *Store) DeleteTeamByID(id uuid.UUID) (bool, error) {
	var removed bool
	err := s.withWriteLock(func(g *model.GameSession) error {
		removed = g.Teams.Remove(id)
		return nil
	})
	return removed, err
}

// NextColor returns the first palette entry not already used by any team
// in the active session, used when auto-creating a team from a buzz.
func (s *Store) NextColor(palette []model.TeamColor) model.TeamColor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		if len(palette) > 0 {
			return palette[0]
		}
		return model.DefaultColor
	}
	return s.session.Teams.FirstUnusedColor(palette)
}

// Persist clones the current session and saves it via store, releasing
// the lock before the (potentially blocking) storage call — write-holders
// must never call out to storage while holding the lock.
func (s *Store) Persist(ctx context.Context, store storage.GameStore) error {
	snap := s.Snapshot()
	if snap == nil {
		return nil
	}
	if store == nil {
		return apperrors.Degraded()
	}
	if err := store.SaveGame(ctx, snap); err != nil {
		return apperrors.Unavailable(err)
	}
	return nil
}

// CurrentPhaseSession exposes the session for the events bus's
// PhaseChangedPayload sessionFn callback, passed to events.NewBus when the
// bus is constructed.
func (s *Store) CurrentPhaseSession() *model.GameSession {
	return s.Snapshot()
}
