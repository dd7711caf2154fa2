package events

import (
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/phase"
)

// PhaseChangedDTO is the public projection of phase.Phase broadcast on
// every committed transition. It collapses PauseKind down to a single
// "pause" phase name with an optional paused_buzzer, and folds Prep's two
// sub-states into distinct public phase names.
type PhaseChangedDTO struct {
	Phase            string     `json:"phase"`
	Song             *SongDTO   `json:"song,omitempty"`
	Scoreboard       []TeamDTO  `json:"scoreboard,omitempty"`
	PausedBuzzer     string     `json:"paused_buzzer,omitempty"`
	PairingTeamID    string     `json:"pairing_team_id,omitempty"`
	FoundPointFields []string   `json:"found_point_fields,omitempty"`
	FoundBonusFields []string   `json:"found_bonus_fields,omitempty"`
}

type SongDTO struct {
	StartsAtMs      uint64 `json:"starts_at_ms"`
	GuessDurationMs uint64 `json:"guess_duration_ms"`
	URL             string `json:"url"`
}

type TeamDTO struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Score    int32          `json:"score"`
	Color    model.TeamColor `json:"color"`
	BuzzerID string         `json:"buzzer_id,omitempty"`
}

func teamDTO(t *model.Team) TeamDTO {
	return TeamDTO{ID: t.ID.String(), Name: t.Name, Score: t.Score, Color: t.Color, BuzzerID: t.BuzzerID}
}

func scoreboardDTO(teams []*model.Team) []TeamDTO {
	out := make([]TeamDTO, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamDTO(t))
	}
	return out
}

// PhaseChangedPayload builds the PhaseChangedDTO for a committed phase,
// given the current session for song/scoreboard context. session may be
// nil (e.g. immediately after EndGame).
func PhaseChangedPayload(p phase.Phase, session *model.GameSession) PhaseChangedDTO {
	dto := PhaseChangedDTO{Phase: p.String()}
	if p.Kind == phase.Running && p.Running == phase.RunningPaused && p.Pause == phase.PauseBuzz {
		dto.PausedBuzzer = p.BuzzID
	}
	if p.Kind == phase.Running && p.Running == phase.RunningPrep && p.Prep == phase.PrepPairing && p.Pairing != nil {
		dto.PairingTeamID = p.Pairing.PairingTeamID.String()
	}
	if session != nil {
		if song := session.CurrentSong(); song != nil {
			dto.Song = &SongDTO{StartsAtMs: song.StartsAtMs, GuessDurationMs: song.GuessDurationMs, URL: song.URL}
		}
		dto.Scoreboard = scoreboardDTO(session.Teams.Ordered())
		dto.FoundPointFields = session.FoundPointFields
		dto.FoundBonusFields = session.FoundBonusFields
	}
	return dto
}

type SystemStatusDTO struct {
	Degraded bool `json:"degraded"`
}

type FieldsFoundDTO struct {
	SongID      int      `json:"song_id"`
	PointFields []string `json:"point_fields"`
	BonusFields []string `json:"bonus_fields"`
}

type AnswerValidationDTO struct {
	Valid bool `json:"valid"`
}

type ScoreAdjustmentDTO struct {
	TeamID string `json:"team_id"`
	Score  int32  `json:"score"`
}

type PairingWaitingDTO struct {
	TeamID string `json:"team_id"`
}

type PairingAssignedDTO struct {
	TeamID   string `json:"team_id"`
	BuzzerID string `json:"buzzer_id"`
}

type PairingRestoredDTO struct {
	Snapshot []TeamDTO `json:"snapshot"`
}

type TestBuzzDTO struct {
	TeamID string `json:"team_id"`
}

type HandshakeDTO struct {
	Stream   string `json:"stream"`
	Degraded bool   `json:"degraded"`
	Token    string `json:"token,omitempty"`
}