package session

import (
	"testing"

	"github.com/google/uuid"

	"neon-beat-back/internal/model"
)

func buildTeamSet(ids ...uuid.UUID) *model.TeamSet {
	ts := model.NewTeamSet()
	for _, id := range ids {
		ts.Add(&model.Team{ID: id, Name: id.String()})
	}
	return ts
}

func TestAdvancePairingTargetsNextUnassigned(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	teams := buildTeamSet(a, b)
	teamA, _ := teams.Get(a)
	teamA.BuzzerID = "aaaaaaaaaaaa"

	ps := &model.PairingSession{PairingTeamID: a}
	outcome := AdvancePairing(ps, teams)

	if outcome.Finished {
		t.Fatalf("expected pairing to continue, team b is still unassigned")
	}
	if outcome.NextTeamID != b {
		t.Fatalf("expected next target to be team b, got %v", outcome.NextTeamID)
	}
	if ps.PairingTeamID != b {
		t.Fatalf("expected pairing session target updated to team b")
	}
}

func TestAdvancePairingFinishesWhenAllAssigned(t *testing.T) {
	a := uuid.New()
	teams := buildTeamSet(a)
	teamA, _ := teams.Get(a)
	teamA.BuzzerID = "aaaaaaaaaaaa"

	ps := &model.PairingSession{PairingTeamID: a}
	outcome := AdvancePairing(ps, teams)

	if !outcome.Finished {
		t.Fatalf("expected pairing to finish once every team is assigned")
	}
}

func TestRemoveFromSnapshot(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	snapshot := []*model.Team{{ID: a}, {ID: b}}

	out := RemoveFromSnapshot(snapshot, a)

	if len(out) != 1 || out[0].ID != b {
		t.Fatalf("expected snapshot to retain only team b, got %v", out)
	}
}

func TestStoreAssignBuzzerStealsFromPriorTeam(t *testing.T) {
	s := NewStore()
	a, b := uuid.New(), uuid.New()
	sess := model.NewGameSession(uuid.New(), "game", &model.Playlist{}, []int{0})
	sess.Teams.Add(&model.Team{ID: a, Name: "a", BuzzerID: "aaaaaaaaaaaa"})
	sess.Teams.Add(&model.Team{ID: b, Name: "b"})
	s.LoadOrCreate(sess)

	if _, err := s.AssignBuzzer(b, "aaaaaaaaaaaa"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	teamA, _ := snap.Teams.Get(a)
	teamB, _ := snap.Teams.Get(b)
	if teamA.BuzzerID != "" {
		t.Fatalf("expected buzzer stolen away from team a, got %q", teamA.BuzzerID)
	}
	if teamB.BuzzerID != "aaaaaaaaaaaa" {
		t.Fatalf("expected buzzer bound to team b, got %q", teamB.BuzzerID)
	}
}

func TestStoreRestoreRoster(t *testing.T) {
	s := NewStore()
	a := uuid.New()
	sess := model.NewGameSession(uuid.New(), "game", &model.Playlist{}, []int{0})
	sess.Teams.Add(&model.Team{ID: a, Name: "a", BuzzerID: "aaaaaaaaaaaa"})
	s.LoadOrCreate(sess)

	snapshot := []*model.Team{{ID: a, Name: "a"}}
	if err := s.RestoreRoster(snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	teamA, _ := snap.Teams.Get(a)
	if teamA.BuzzerID != "" {
		t.Fatalf("expected restored roster to drop the buzzer binding, got %q", teamA.BuzzerID)
	}
}
