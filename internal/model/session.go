package model

import (
	"time"

	"github.com/google/uuid"
)

// GameSession is the single authoritative game aggregate: teams, the
// playlist being played, and the current song's discovery progress.
type GameSession struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Teams *TeamSet `json:"-"`

	Playlist           *Playlist `json:"-"`
	PlaylistSongOrder  []int     `json:"playlist_song_order"`
	CurrentSongIndex   *int      `json:"current_song_index,omitempty"`
	CurrentSongFound   bool      `json:"current_song_found"`
	FoundPointFields   []string  `json:"found_point_fields"`
	FoundBonusFields   []string  `json:"found_bonus_fields"`
}

// NewGameSession builds a fresh session over playlist with a shuffled song
// order already assigned by the caller (shuffling is a service-layer
// concern so it stays reproducible/testable independent of the model).
func NewGameSession(id uuid.UUID, name string, playlist *Playlist, order []int) *GameSession {
	now := time.Now()
	return &GameSession{
		ID:                id,
		Name:              name,
		CreatedAt:         now,
		UpdatedAt:         now,
		Teams:             NewTeamSet(),
		Playlist:          playlist,
		PlaylistSongOrder: order,
	}
}

// CurrentSong returns the song at CurrentSongIndex, or nil if no song is
// active.
func (g *GameSession) CurrentSong() *Song {
	if g.CurrentSongIndex == nil {
		return nil
	}
	idx := *g.CurrentSongIndex
	if idx < 0 || idx >= len(g.PlaylistSongOrder) {
		return nil
	}
	songID := g.PlaylistSongOrder[idx]
	song, ok := g.Playlist.Get(songID)
	if !ok {
		return nil
	}
	return song
}

// StartSong advances to song index i, resetting per-song discovery
// progress. Callers are responsible for validating i is in range.
func (g *GameSession) StartSong(i int) {
	idx := i
	g.CurrentSongIndex = &idx
	g.CurrentSongFound = false
	g.FoundPointFields = nil
	g.FoundBonusFields = nil
	g.UpdatedAt = time.Now()
}

// MarkFound records key as found for kind, returning false (no-op) if the
// song does not declare that key or it was already recorded.
func (g *GameSession) MarkFound(kind FieldKind, key string) bool {
	song := g.CurrentSong()
	if song == nil || !song.HasField(kind, key) {
		return false
	}
	list := &g.FoundPointFields
	if kind == BonusField {
		list = &g.FoundBonusFields
	}
	for _, existing := range *list {
		if existing == key {
			return true
		}
	}
	*list = append(*list, key)
	g.UpdatedAt = time.Now()
	return true
}

// Clone deep-copies the session for safe hand-off to callers that must not
// observe further in-place mutation (snapshots, persistence, broadcast).
func (g *GameSession) Clone() *GameSession {
	if g == nil {
		return nil
	}
	cp := *g
	cp.Teams = g.Teams.Clone()
	cp.Playlist = g.Playlist.Clone()
	cp.PlaylistSongOrder = append([]int(nil), g.PlaylistSongOrder...)
	cp.FoundPointFields = append([]string(nil), g.FoundPointFields...)
	cp.FoundBonusFields = append([]string(nil), g.FoundBonusFields...)
	if g.CurrentSongIndex != nil {
		idx := *g.CurrentSongIndex
		cp.CurrentSongIndex = &idx
	}
	return &cp
}
