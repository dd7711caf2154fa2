package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/buzzer"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/session"
)

// StartPairing snapshots the current roster and begins the pairing
// workflow, targeting the first unassigned team. Transitions
// Prep(Ready) -> Prep(Pairing).
func (s *GameService) StartPairing(ctx context.Context) error {
	snap := s.Session.Snapshot()
	if snap == nil {
		return apperrors.InvalidState("no active game")
	}
	roster := snap.Teams.Ordered()
	if len(roster) == 0 {
		return apperrors.InvalidState("cannot start pairing without any teams")
	}
	target, ok := snap.Teams.NextUnassigned()
	if !ok {
		target = roster[0]
	}
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus,
		phase.Event{Kind: phase.EventStartPairing, Roster: roster, PairingTeam: target},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) { return struct{}{}, nil })
	return err
}

// AbortPairing restores the roster from the pairing snapshot and
// transitions back to Prep(Ready).
func (s *GameService) AbortPairing(ctx context.Context) error {
	pairing := s.Machine.PairingSnapshot()
	if pairing == nil {
		return apperrors.InvalidState("pairing is not active")
	}
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventAbortPairing},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) {
			if err := s.Session.RestoreRoster(pairing.Snapshot); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, s.persistSession(ctx)
		})
	if err != nil {
		return err
	}
	s.Bus.PublishPairingRestored(pairing.Snapshot)
	return nil
}

// finishPairing commits PairingFinished, ensuring the first song has
// started before the playing phase is broadcast.
func (s *GameService) finishPairing(ctx context.Context) error {
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventPairingFinished},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) {
			if err := s.ensureSongStarted(); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, s.persistSession(ctx)
		})
	return err
}

func (s *GameService) ensureSongStarted() error {
	snap := s.Session.Snapshot()
	if snap == nil {
		return apperrors.InvalidState("no active game")
	}
	if snap.CurrentSongIndex != nil {
		return nil
	}
	return s.Session.StartSong(0)
}

// GameConfigured skips pairing entirely (every team already has a buzzer
// bound) and starts play directly. Transitions Prep(Ready) -> Playing.
func (s *GameService) GameConfigured(ctx context.Context) error {
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventGameConfigured},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) {
			if err := s.ensureSongStarted(); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, s.persistSession(ctx)
		})
	return err
}

// Pause manually pauses an in-progress song. Transitions Playing -> Paused(Manual).
func (s *GameService) Pause(ctx context.Context) error {
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus,
		phase.Event{Kind: phase.EventPause, PauseKind: phase.PauseManual},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) { return struct{}{}, nil })
	return err
}

// ContinuePlaying resumes from a pause. If the pause was buzzer-triggered,
// the buzzer that held the answering slot is notified its turn ended.
func (s *GameService) ContinuePlaying(ctx context.Context) error {
	prior := s.Machine.Current()
	priorBuzz, wasBuzzPause := pausedBuzzerOf(prior)
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventContinuePlaying},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) { return struct{}{}, nil })
	if err != nil {
		return err
	}
	if wasBuzzPause {
		s.Buzzers.SendCanAnswer(priorBuzz, false)
		s.Buzzers.SendPattern(priorBuzz, buzzer.OffPattern())
	}
	return nil
}

// Reveal ends the current song's guessing window. Same buzzer-turn
// notification as ContinuePlaying.
func (s *GameService) Reveal(ctx context.Context) error {
	prior := s.Machine.Current()
	priorBuzz, wasBuzzPause := pausedBuzzerOf(prior)
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventReveal},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) { return struct{}{}, nil })
	if err != nil {
		return err
	}
	if wasBuzzPause {
		s.Buzzers.SendCanAnswer(priorBuzz, false)
		s.Buzzers.SendPattern(priorBuzz, buzzer.OffPattern())
	}
	return nil
}

func pausedBuzzerOf(p phase.Phase) (string, bool) {
	if p.Kind == phase.Running && p.Running == phase.RunningPaused && p.Pause == phase.PauseBuzz && p.BuzzID != "" {
		return p.BuzzID, true
	}
	return "", false
}

// NextSong advances to the next song, or finishes the game when the
// playlist is exhausted. Returns finished=true in the latter case.
func (s *GameService) NextSong(ctx context.Context) (finished bool, err error) {
	snap := s.Session.Snapshot()
	if snap == nil {
		return false, apperrors.InvalidState("no active game")
	}
	if snap.CurrentSongIndex == nil {
		return false, apperrors.InvalidState("no active song")
	}
	nextIdx := *snap.CurrentSongIndex + 1
	if nextIdx < len(snap.PlaylistSongOrder) {
		_, _, err = phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventNextSong},
			func(ctx context.Context, plan phase.Plan) (struct{}, error) {
				if err := s.Session.StartSong(nextIdx); err != nil {
					return struct{}{}, err
				}
				return struct{}{}, s.persistSession(ctx)
			})
		return false, err
	}
	err = s.finishGame(ctx, phase.FinishPlaylistCompleted)
	return true, err
}

// StopGame ends the game early on admin request, independent of playlist
// exhaustion.
func (s *GameService) StopGame(ctx context.Context) error {
	return s.finishGame(ctx, phase.FinishAborted)
}

func (s *GameService) finishGame(ctx context.Context, reason phase.FinishReason) error {
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus,
		phase.Event{Kind: phase.EventFinish, FinishReason: reason},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) { return struct{}{}, s.persistSession(ctx) })
	return err
}

// EndGame clears the active session, returning to Idle.
func (s *GameService) EndGame(ctx context.Context) error {
	_, _, err := phase.RunTransitionWithBroadcast(ctx, s.Gate, s.Machine, s.Bus, phase.Event{Kind: phase.EventEndGame},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) {
			s.Session.Clear()
			return struct{}{}, nil
		})
	return err
}

// MarkField records a point/bonus field as found for the current song.
func (s *GameService) MarkField(ctx context.Context, kind model.FieldKind, key string) error {
	if err := s.requireRunningSubphase(); err != nil {
		return err
	}
	changed, err := s.Session.MarkField(kind, key)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.persistSession(ctx); err != nil {
		return err
	}
	snap := s.Session.Snapshot()
	songID := 0
	if snap.CurrentSongIndex != nil {
		songID = snap.PlaylistSongOrder[*snap.CurrentSongIndex]
	}
	s.Bus.PublishFieldsFound(songID, snap.FoundPointFields, snap.FoundBonusFields)
	return nil
}

// ValidateAnswer broadcasts the admin's accept/reject verdict during a
// pause. It does not itself mutate the phase or score.
func (s *GameService) ValidateAnswer(ctx context.Context, valid bool) error {
	current := s.Machine.Current()
	if !(current.Kind == phase.Running && current.Running == phase.RunningPaused) {
		return apperrors.InvalidState("cannot validate answer outside of a pause")
	}
	s.Bus.PublishAnswerValidation(valid)
	return nil
}

// AdjustScore applies delta to the team bound to buzzerID.
func (s *GameService) AdjustScore(ctx context.Context, buzzerID string, delta int32) (*model.Team, error) {
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	team, err := s.Session.AdjustScore(buzzerID, delta)
	if err != nil {
		return nil, err
	}
	if err := s.persistSession(ctx); err != nil {
		return nil, err
	}
	s.Bus.PublishScoreAdjustment(team.ID.String(), team.Score)
	return team, nil
}

// CreateTeam registers an additional team outside of the buzzer
// auto-creation path (an explicit admin action).
func (s *GameService) CreateTeam(ctx context.Context, input TeamInput) (*model.Team, error) {
	snap := s.Session.Snapshot()
	if snap == nil {
		return nil, apperrors.InvalidState("no active game")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidInput("team name must not be empty")
	}
	if input.BuzzerID != "" {
		if _, exists := snap.Teams.FindByBuzzer(input.BuzzerID); exists {
			return nil, apperrors.InvalidInput("buzzer already bound to a team")
		}
	}
	color := input.Color
	var c model.TeamColor
	if color != nil {
		c = *color
	} else {
		c = s.Session.NextColor(s.Config.Get().Colors)
	}
	team, err := s.Session.CreateTeam(input.Name, input.BuzzerID, c)
	if err != nil {
		return nil, err
	}
	if err := s.persistTeam(ctx, snap.ID, team); err != nil {
		return nil, err
	}
	s.Bus.PublishTeamCreated(team)
	return team, nil
}

// TeamUpdate is a partial team edit; nil fields are left unchanged.
type TeamUpdate struct {
	Name  *string
	Color *model.TeamColor
}

// UpdateTeam renames and/or recolors a team, persisting the single-team
// delta.
func (s *GameService) UpdateTeam(ctx context.Context, teamID uuid.UUID, upd TeamUpdate) (*model.Team, error) {
	team, err := s.Session.UpdateTeam(teamID, upd.Name, upd.Color)
	if err != nil {
		return nil, err
	}
	snap := s.Session.Snapshot()
	if err := s.persistTeam(ctx, snap.ID, team); err != nil {
		return nil, err
	}
	s.Bus.PublishTeamUpdated(team)
	return team, nil
}

// DeleteTeam removes a team, unwinding it from an in-flight pairing
// workflow if it was that workflow's current target.
func (s *GameService) DeleteTeam(ctx context.Context, teamID uuid.UUID) error {
	removed, err := s.Session.DeleteTeamByID(teamID)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NotFound("team not found")
	}

	if snap := s.Session.Snapshot(); snap != nil {
		if store := s.Supervisor.Store(); store != nil {
			_ = store.DeleteTeam(ctx, snap.ID, teamID)
		}
	}
	s.Bus.PublishTeamDeleted(teamID.String())

	return s.reactToTeamDeletedDuringPairing(ctx, teamID)
}

func (s *GameService) reactToTeamDeletedDuringPairing(ctx context.Context, teamID uuid.UUID) error {
	pairing := s.Machine.PairingSnapshot()
	if pairing == nil {
		return nil
	}
	snap := s.Session.Snapshot()
	if snap == nil {
		return nil
	}
	wasTarget := pairing.PairingTeamID == teamID
	var outcome session.PairingOutcome
	if err := s.Machine.MutatePairing(func(ps *model.PairingSession) {
		ps.Snapshot = session.RemoveFromSnapshot(ps.Snapshot, teamID)
		if wasTarget {
			outcome = session.AdvancePairing(ps, snap.Teams)
		}
	}); err != nil {
		return err
	}
	if !wasTarget {
		return nil
	}
	if outcome.Finished {
		return s.finishPairing(ctx)
	}
	s.Bus.PublishPairingWaiting(outcome.NextTeamID.String())
	return nil
}

func (s *GameService) persistTeam(ctx context.Context, gameID uuid.UUID, team *model.Team) error {
	store := s.Supervisor.Store()
	if store == nil {
		return apperrors.Degraded()
	}
	if err := store.SaveTeam(ctx, gameID, team); err != nil {
		return apperrors.Unavailable(err)
	}
	return nil
}
