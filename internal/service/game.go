package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/storage"
)

// TeamInput is the admin-facing request shape for declaring a team, used
// both at game-creation time and for a later explicit CreateTeam call.
type TeamInput struct {
	Name     string
	BuzzerID string
	Color    *model.TeamColor
	Score    int32
}

// Snapshot is the read model handed to REST/SSE handshake handlers.
type Snapshot struct {
	Phase    phase.Phase
	Degraded bool
	Session  *model.GameSession
}

func (s *GameService) Snapshot() Snapshot {
	return Snapshot{
		Phase:    s.Machine.Current(),
		Degraded: s.Bus.Degraded.Value(),
		Session:  s.Session.Snapshot(),
	}
}

func (s *GameService) ListGames(ctx context.Context) ([]storage.GameListItem, error) {
	store := s.Supervisor.Store()
	if store == nil {
		return nil, apperrors.Degraded()
	}
	items, err := store.ListGames(ctx)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return items, nil
}

func (s *GameService) ListPlaylists(ctx context.Context) ([]storage.PlaylistListItem, error) {
	store := s.Supervisor.Store()
	if store == nil {
		return nil, apperrors.Degraded()
	}
	items, err := store.ListPlaylists(ctx)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return items, nil
}

// FindPlaylist resolves a playlist by id, used by CreateGame's REST
// handler to turn a playlist_id request field into the *model.Playlist
// CreateGame itself requires.
func (s *GameService) FindPlaylist(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	store := s.Supervisor.Store()
	if store == nil {
		return nil, apperrors.Degraded()
	}
	playlist, err := store.FindPlaylist(ctx, id)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if playlist == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("playlist `%s` not found", id))
	}
	return playlist, nil
}

// DeleteGame removes a persisted game. The in-memory session, if it
// happens to be that game, is untouched — deleting a stored game is a
// library-management operation, not a phase transition.
func (s *GameService) DeleteGame(ctx context.Context, id uuid.UUID) error {
	store := s.Supervisor.Store()
	if store == nil {
		return apperrors.Degraded()
	}
	deleted, err := store.DeleteGame(ctx, id)
	if err != nil {
		return apperrors.Unavailable(err)
	}
	if !deleted {
		return apperrors.NotFound(fmt.Sprintf("game `%s` not found", id))
	}
	return nil
}

// CreatePlaylist validates and persists a reusable playlist definition.
func (s *GameService) CreatePlaylist(ctx context.Context, name string, songs []model.Song) (*model.Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.InvalidInput("playlist name must not be empty")
	}
	if len(songs) == 0 {
		return nil, apperrors.InvalidInput("playlist songs must not be empty")
	}
	playlist := &model.Playlist{ID: uuid.New(), Name: name, Songs: make(map[int]*model.Song, len(songs))}
	for i := range songs {
		song := songs[i]
		if len(song.PointFields) == 0 {
			return nil, apperrors.InvalidInput("each song must declare at least one point field")
		}
		if strings.TrimSpace(song.URL) == "" {
			return nil, apperrors.InvalidInput("song url must not be empty")
		}
		if song.GuessDurationMs == 0 {
			return nil, apperrors.InvalidInput("guess duration must be strictly positive")
		}
		playlist.Songs[i] = &song
		playlist.Order = append(playlist.Order, i)
	}
	store := s.Supervisor.Store()
	if store == nil {
		return nil, apperrors.Degraded()
	}
	if err := store.SavePlaylist(ctx, playlist); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return playlist, nil
}

// CreateGame bootstraps a fresh game from a playlist and explicit team
// declarations, transitioning Idle -> Prep(Ready).
func (s *GameService) CreateGame(ctx context.Context, name string, playlist *model.Playlist, teamInputs []TeamInput, shuffle bool) (*model.GameSession, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.InvalidInput("game name must not be empty")
	}
	if playlist == nil || len(playlist.Order) == 0 {
		return nil, apperrors.InvalidInput("playlist must contain at least one song")
	}
	teams, err := s.buildTeams(teamInputs)
	if err != nil {
		return nil, err
	}
	order := playlist.SongIDs()
	if shuffle {
		rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	sess := model.NewGameSession(uuid.New(), name, playlist, order)
	for _, t := range teams {
		sess.Teams.Add(t)
	}
	if err := s.startGame(ctx, sess); err != nil {
		return nil, err
	}
	installed := s.Session.Snapshot()
	s.Bus.PublishGameTeams(installed.Teams.Ordered())
	return installed, nil
}

// LoadGame restores a previously persisted game, transitioning
// Idle -> Prep(Ready). Shuffling is refused for a game already underway.
func (s *GameService) LoadGame(ctx context.Context, id uuid.UUID, shuffle bool) (*model.GameSession, error) {
	store := s.Supervisor.Store()
	if store == nil {
		return nil, apperrors.Degraded()
	}
	sess, err := store.FindGame(ctx, id)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if sess == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("game `%s` not found", id))
	}
	if shuffle && isPlaylistInProgress(sess) {
		return nil, apperrors.InvalidInput("shuffle parameter cannot be used: game is already in progress")
	}
	if shuffle {
		rand.Shuffle(len(sess.PlaylistSongOrder), func(i, j int) {
			sess.PlaylistSongOrder[i], sess.PlaylistSongOrder[j] = sess.PlaylistSongOrder[j], sess.PlaylistSongOrder[i]
		})
		sess.UpdatedAt = time.Now()
	}
	if err := s.startGame(ctx, sess); err != nil {
		return nil, err
	}
	installed := s.Session.Snapshot()
	s.Bus.PublishGameTeams(installed.Teams.Ordered())
	return installed, nil
}

// isPlaylistInProgress: a freshly-started (index 0, nothing found) or
// fully-completed (last index, found) game is not "in progress" and may
// still be reshuffled.
func isPlaylistInProgress(sess *model.GameSession) bool {
	if sess.CurrentSongIndex == nil {
		return false
	}
	idx := *sess.CurrentSongIndex
	if sess.CurrentSongFound && idx >= len(sess.PlaylistSongOrder)-1 {
		return false
	}
	if !sess.CurrentSongFound && idx == 0 {
		return false
	}
	return true
}

func (s *GameService) startGame(ctx context.Context, sess *model.GameSession) error {
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventStartGame},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) {
			s.Session.LoadOrCreate(sess)
			return struct{}{}, s.persistSession(ctx)
		})
	return err
}

func (s *GameService) buildTeams(inputs []TeamInput) ([]*model.Team, error) {
	seenBuzzers := make(map[string]struct{})
	var used []model.TeamColor
	palette := s.Config.Get().Colors
	out := make([]*model.Team, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Name) == "" {
			return nil, apperrors.InvalidInput("team name must not be empty")
		}
		if in.BuzzerID != "" {
			if _, dup := seenBuzzers[in.BuzzerID]; dup {
				return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate buzzer id `%s` detected", in.BuzzerID))
			}
			seenBuzzers[in.BuzzerID] = struct{}{}
		}
		color := model.DefaultColor
		switch {
		case in.Color != nil:
			color = *in.Color
		default:
			color = firstUnusedColor(palette, used)
		}
		used = append(used, color)
		out = append(out, &model.Team{
			ID: uuid.New(), BuzzerID: in.BuzzerID, Name: in.Name, Score: in.Score,
			Color: color, UpdatedAt: time.Now(),
		})
	}
	return out, nil
}

func firstUnusedColor(palette []model.TeamColor, used []model.TeamColor) model.TeamColor {
	for _, c := range palette {
		taken := false
		for _, u := range used {
			if u.Equal(c) {
				taken = true
				break
			}
		}
		if !taken {
			return c
		}
	}
	return model.DefaultColor
}
