package service

import (
	"context"
	"fmt"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/buzzer"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/session"
)

// HandleBuzz implements buzzer.Dispatcher: it dispatches a buzz frame per
// the current phase. The returned bool is true only when this buzz caused
// the buzzer to hold the answering slot.
func (s *GameService) HandleBuzz(id string) (bool, error) {
	current := s.Machine.Current()
	switch {
	case current.Kind == phase.Running && current.Running == phase.RunningPrep && current.Prep == phase.PrepPairing:
		return false, s.handlePairingBuzz(id)
	case current.Kind == phase.Running && current.Running == phase.RunningPrep:
		return false, s.handlePrepReadyBuzz(id)
	case current.Kind == phase.Running && current.Running == phase.RunningPlaying:
		return s.handlePlayingBuzz(id)
	default:
		return false, apperrors.InvalidState("buzz events are not accepted in the current phase")
	}
}

// handlePrepReadyBuzz re-broadcasts a test_buzz for an already-bound
// buzzer, or auto-creates a new team for an unbound one once every
// existing team already holds a buzzer. While some team is still
// buzzer-less, an unknown buzz is deliberately ignored.
func (s *GameService) handlePrepReadyBuzz(id string) error {
	snap := s.Session.Snapshot()
	if snap == nil {
		return apperrors.InvalidState("no active game")
	}
	if team, ok := snap.Teams.FindByBuzzer(id); ok {
		s.Bus.PublishTestBuzz(team.ID.String())
		return nil
	}
	if !snap.Teams.AllAssigned() {
		return nil
	}
	color := s.Session.NextColor(s.Config.Get().Colors)
	name := fmt.Sprintf("Team %d", snap.Teams.Len()+1)
	team, err := s.Session.CreateTeam(name, id, color)
	if err != nil {
		return err
	}
	if err := s.persistTeam(context.Background(), snap.ID, team); err != nil {
		return err
	}
	s.Bus.PublishTeamCreated(team)
	return nil
}

// handlePairingBuzz binds the buzzing device to the pairing workflow's
// current target team, stealing it from any prior team, then advances the
// workflow.
func (s *GameService) handlePairingBuzz(buzzerID string) error {
	pairing := s.Machine.PairingSnapshot()
	if pairing == nil {
		return apperrors.InvalidState("pairing workflow lost session state")
	}
	team, err := s.Session.AssignBuzzer(pairing.PairingTeamID, buzzerID)
	if err != nil {
		return err
	}
	snap := s.Session.Snapshot()
	if snap == nil {
		return apperrors.InvalidState("no active game")
	}
	if err := s.persistTeam(context.Background(), snap.ID, team); err != nil {
		return err
	}

	var outcome session.PairingOutcome
	if err := s.Machine.MutatePairing(func(ps *model.PairingSession) {
		outcome = session.AdvancePairing(ps, snap.Teams)
	}); err != nil {
		return err
	}

	s.Bus.PublishPairingAssigned(team.ID.String(), buzzerID)
	s.Buzzers.SendPattern(buzzerID, buzzer.BlinkPattern(team.Color))
	if outcome.Finished {
		return s.finishPairing(context.Background())
	}
	s.Bus.PublishPairingWaiting(outcome.NextTeamID.String())
	return nil
}

// handlePlayingBuzz pauses the game on behalf of a recognised team's
// buzzer, giving it the answering slot.
func (s *GameService) handlePlayingBuzz(buzzerID string) (bool, error) {
	snap := s.Session.Snapshot()
	if snap == nil {
		return false, apperrors.InvalidState("no active game")
	}
	team, ok := snap.Teams.FindByBuzzer(buzzerID)
	if !ok {
		return false, apperrors.InvalidState(fmt.Sprintf("buzz ignored: unknown buzzer id `%s`", buzzerID))
	}
	_, _, err := phase.RunTransitionWithBroadcast(context.Background(), s.Gate, s.Machine, s.Bus,
		phase.Event{Kind: phase.EventPause, PauseKind: phase.PauseBuzz, BuzzID: buzzerID},
		func(ctx context.Context, plan phase.Plan) (struct{}, error) { return struct{}{}, nil })
	if err != nil {
		return false, err
	}
	s.Buzzers.SendPattern(buzzerID, buzzer.WavePattern(team.Color))
	return true, nil
}
