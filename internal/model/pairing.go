package model

import "github.com/google/uuid"

// PairingSession tracks the bootstrap workflow that binds each team to a
// buzzer. It exists only while the game phase is Prep(Pairing).
type PairingSession struct {
	PairingTeamID uuid.UUID
	Snapshot      []*Team
}

// Clone deep-copies the pairing session so it is safe to hand out across
// the state machine's lock boundary (see phase.GameStateMachine.Current).
func (p *PairingSession) Clone() *PairingSession {
	if p == nil {
		return nil
	}
	cp := &PairingSession{PairingTeamID: p.PairingTeamID}
	cp.Snapshot = make([]*Team, len(p.Snapshot))
	for i, t := range p.Snapshot {
		cp.Snapshot[i] = t.Clone()
	}
	return cp
}
