package session

import (
	"github.com/google/uuid"

	"neon-beat-back/internal/model"
)

// PairingOutcome describes the result of driving the pairing workflow
// forward after a roster change: either a next team is now waiting for
// its buzzer, or every team is bound and the workflow is done.
type PairingOutcome struct {
	Finished   bool
	NextTeamID uuid.UUID
}

// AdvancePairing sets ps.PairingTeamID to the next team in teams with no
// buzzer bound, in insertion order, and reports whether the workflow is
// finished (no unassigned team remains).
func AdvancePairing(ps *model.PairingSession, teams *model.TeamSet) PairingOutcome {
	if next, ok := teams.NextUnassigned(); ok {
		ps.PairingTeamID = next.ID
		return PairingOutcome{NextTeamID: next.ID}
	}
	return PairingOutcome{Finished: true}
}

// RemoveFromSnapshot drops teamID from a pairing snapshot, used when a
// team is deleted mid-pairing so an aborted workflow does not resurrect it.
func RemoveFromSnapshot(snapshot []*model.Team, teamID uuid.UUID) []*model.Team {
	out := make([]*model.Team, 0, len(snapshot))
	for _, t := range snapshot {
		if t.ID != teamID {
			out = append(out, t)
		}
	}
	return out
}
