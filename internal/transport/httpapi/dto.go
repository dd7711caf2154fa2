package httpapi

import (
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/service"
)

// These mirror internal/events' wire DTOs but are kept local to the REST
// surface: REST responses serialize the full aggregate (including
// point/bonus field definitions), while SSE events only ever need the
// public projection events.PhaseChangedDTO already provides.

type pointFieldDTO struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Points uint8  `json:"points"`
}

type songDTO struct {
	StartsAtMs      uint64          `json:"starts_at_ms"`
	GuessDurationMs uint64          `json:"guess_duration_ms"`
	URL             string          `json:"url"`
	PointFields     []pointFieldDTO `json:"point_fields"`
	BonusFields     []pointFieldDTO `json:"bonus_fields"`
}

type playlistDTO struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Songs []songDTO `json:"songs"`
}

type teamDTO struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Score    int32           `json:"score"`
	Color    model.TeamColor `json:"color"`
	BuzzerID string          `json:"buzzer_id,omitempty"`
}

type gameSessionDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Teams             []teamDTO `json:"teams"`
	PlaylistSongOrder []int     `json:"playlist_song_order"`
	CurrentSongIndex  *int      `json:"current_song_index,omitempty"`
	CurrentSongFound  bool      `json:"current_song_found"`
	FoundPointFields  []string  `json:"found_point_fields"`
	FoundBonusFields  []string  `json:"found_bonus_fields"`
}

type snapshotDTO struct {
	Phase    string          `json:"phase"`
	Degraded bool            `json:"degraded"`
	Session  *gameSessionDTO `json:"session,omitempty"`
}

func toPointFieldDTOs(fields []model.PointField) []pointFieldDTO {
	out := make([]pointFieldDTO, 0, len(fields))
	for _, f := range fields {
		out = append(out, pointFieldDTO{Key: f.Key, Value: f.Value, Points: f.Points})
	}
	return out
}

func toTeamDTO(t *model.Team) teamDTO {
	return teamDTO{ID: t.ID.String(), Name: t.Name, Score: t.Score, Color: t.Color, BuzzerID: t.BuzzerID}
}

func toTeamDTOs(teams []*model.Team) []teamDTO {
	out := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamDTO(t))
	}
	return out
}

func toPlaylistDTO(p *model.Playlist) playlistDTO {
	songs := make([]songDTO, 0, len(p.Order))
	for _, id := range p.Order {
		song, ok := p.Songs[id]
		if !ok {
			continue
		}
		songs = append(songs, songDTO{
			StartsAtMs:      song.StartsAtMs,
			GuessDurationMs: song.GuessDurationMs,
			URL:             song.URL,
			PointFields:     toPointFieldDTOs(song.PointFields),
			BonusFields:     toPointFieldDTOs(song.BonusFields),
		})
	}
	return playlistDTO{ID: p.ID.String(), Name: p.Name, Songs: songs}
}

func toGameSessionDTO(g *model.GameSession) *gameSessionDTO {
	if g == nil {
		return nil
	}
	return &gameSessionDTO{
		ID:                g.ID.String(),
		Name:              g.Name,
		Teams:             toTeamDTOs(g.Teams.Ordered()),
		PlaylistSongOrder: g.PlaylistSongOrder,
		CurrentSongIndex:  g.CurrentSongIndex,
		CurrentSongFound:  g.CurrentSongFound,
		FoundPointFields:  g.FoundPointFields,
		FoundBonusFields:  g.FoundBonusFields,
	}
}

func toSnapshotDTO(snap service.Snapshot) snapshotDTO {
	return snapshotDTO{
		Phase:    snap.Phase.String(),
		Degraded: snap.Degraded,
		Session:  toGameSessionDTO(snap.Session),
	}
}
