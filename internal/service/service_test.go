package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"neon-beat-back/internal/buzzer"
	"neon-beat-back/internal/config"
	"neon-beat-back/internal/events"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/session"
	"neon-beat-back/internal/storage"
)

// memStore satisfies storage.GameStore without any backing database, so
// service flows that persist mid-transition can run in tests.
type memStore struct{}

func (memStore) SaveGame(ctx context.Context, g *model.GameSession) error    { return nil }
func (memStore) SavePlaylist(ctx context.Context, p *model.Playlist) error   { return nil }
func (memStore) FindGame(ctx context.Context, id uuid.UUID) (*model.GameSession, error) {
	return nil, nil
}
func (memStore) FindPlaylist(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	return nil, nil
}
func (memStore) ListGames(ctx context.Context) ([]storage.GameListItem, error)         { return nil, nil }
func (memStore) ListPlaylists(ctx context.Context) ([]storage.PlaylistListItem, error) { return nil, nil }
func (memStore) DeleteGame(ctx context.Context, id uuid.UUID) (bool, error)            { return false, nil }
func (memStore) SaveTeam(ctx context.Context, gameID uuid.UUID, t *model.Team) error   { return nil }
func (memStore) DeleteTeam(ctx context.Context, gameID, teamID uuid.UUID) error        { return nil }
func (memStore) HealthCheck(ctx context.Context) error                                 { return nil }
func (memStore) TryReconnect(ctx context.Context) error                                { return nil }
func (memStore) Close() error                                                          { return nil }

func newTestService(t *testing.T) *GameService {
	t.Helper()
	sessions := session.NewStore()
	machine := phase.NewGameStateMachine()
	bus := events.NewBus(sessions.CurrentPhaseSession)
	sup := storage.NewSupervisor(func(ctx context.Context) (storage.GameStore, error) {
		return nil, errors.New("connect loop not used in tests")
	}, bus)
	sup.Install(memStore{})
	cfg := config.NewHolder(config.AppConfig{Colors: config.DefaultColors()})
	return New(sessions, machine, bus, buzzer.NewRegistry(), sup, cfg)
}

func testPlaylist(nSongs int) *model.Playlist {
	p := &model.Playlist{ID: uuid.New(), Name: "test", Songs: make(map[int]*model.Song, nSongs)}
	for i := 0; i < nSongs; i++ {
		p.Songs[i] = &model.Song{
			GuessDurationMs: 30000,
			URL:             fmt.Sprintf("https://media.example/%d.ogg", i),
			PointFields:     []model.PointField{{Key: "artist", Value: "a", Points: 1}, {Key: "title", Value: "t", Points: 1}},
		}
		p.Order = append(p.Order, i)
	}
	return p
}

// drain pulls every currently buffered envelope off an SSE hub channel.
func drain(ch <-chan events.Envelope) []events.Envelope {
	var out []events.Envelope
	for {
		select {
		case env := <-ch:
			out = append(out, env)
		default:
			return out
		}
	}
}

func countByName(envs []events.Envelope, name string) int {
	n := 0
	for _, e := range envs {
		if e.Name == name {
			n++
		}
	}
	return n
}

func TestHappyPathBroadcastsSevenPhaseChanges(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, ch, cancel := svc.Bus.Public.Subscribe()
	defer cancel()

	if _, err := svc.CreateGame(ctx, "quiz night", testPlaylist(3), []TeamInput{
		{Name: "A", BuzzerID: "deadbeef0001"},
	}, false); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := svc.GameConfigured(ctx); err != nil {
		t.Fatalf("GameConfigured: %v", err)
	}
	if err := svc.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := svc.Reveal(ctx); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if _, err := svc.NextSong(ctx); err != nil {
		t.Fatalf("NextSong: %v", err)
	}
	if err := svc.StopGame(ctx); err != nil {
		t.Fatalf("StopGame: %v", err)
	}
	if err := svc.EndGame(ctx); err != nil {
		t.Fatalf("EndGame: %v", err)
	}

	if got := svc.Machine.Current().Kind; got != phase.Idle {
		t.Fatalf("expected final phase Idle, got %v", got)
	}
	if svc.Machine.LastFinishReason() != nil {
		t.Fatalf("expected finish reason cleared after EndGame")
	}
	envs := drain(ch)
	if n := countByName(envs, "phase_changed"); n != 7 {
		t.Fatalf("expected exactly 7 phase_changed broadcasts, got %d (%v)", n, envs)
	}
}

func TestPairingWalkAssignsEveryTeamThenPlays(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateGame(ctx, "quiz", testPlaylist(2), []TeamInput{
		{Name: "A"}, {Name: "B"},
	}, false); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := svc.StartPairing(ctx); err != nil {
		t.Fatalf("StartPairing: %v", err)
	}
	_, ch, cancel := svc.Bus.Admin.Subscribe()
	defer cancel()

	if _, err := svc.HandleBuzz("deadbeef0001"); err != nil {
		t.Fatalf("first pairing buzz: %v", err)
	}
	if _, err := svc.HandleBuzz("deadbeef0002"); err != nil {
		t.Fatalf("second pairing buzz: %v", err)
	}

	current := svc.Machine.Current()
	if !(current.Kind == phase.Running && current.Running == phase.RunningPlaying) {
		t.Fatalf("expected phase playing after pairing finished, got %v", current)
	}
	snap := svc.Session.Snapshot()
	teams := snap.Teams.Ordered()
	if teams[0].BuzzerID != "deadbeef0001" || teams[1].BuzzerID != "deadbeef0002" {
		t.Fatalf("expected buzzers bound in pairing order, got %q / %q", teams[0].BuzzerID, teams[1].BuzzerID)
	}
	envs := drain(ch)
	if n := countByName(envs, "pairing_assigned"); n != 2 {
		t.Fatalf("expected 2 pairing_assigned events, got %d", n)
	}
	if n := countByName(envs, "pairing_waiting"); n != 1 {
		t.Fatalf("expected 1 pairing_waiting event between assignments, got %d", n)
	}
}

func TestPairingBuzzStealsBuzzerFromPriorOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateGame(ctx, "quiz", testPlaylist(2), []TeamInput{
		{Name: "A", BuzzerID: "deadbeef0001"}, {Name: "B"},
	}, false); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := svc.StartPairing(ctx); err != nil {
		t.Fatalf("StartPairing: %v", err)
	}
	// B is the pairing target (first unassigned); A's buzzer buzzes.
	if _, err := svc.HandleBuzz("deadbeef0001"); err != nil {
		t.Fatalf("steal buzz: %v", err)
	}

	snap := svc.Session.Snapshot()
	teams := snap.Teams.Ordered()
	if teams[0].BuzzerID != "" {
		t.Fatalf("expected buzzer stolen away from team A, got %q", teams[0].BuzzerID)
	}
	if teams[1].BuzzerID != "deadbeef0001" {
		t.Fatalf("expected buzzer bound to team B, got %q", teams[1].BuzzerID)
	}
	pairing := svc.Machine.PairingSnapshot()
	if pairing == nil || pairing.PairingTeamID != teams[0].ID {
		t.Fatalf("expected team A to become the next pairing target")
	}
}

func TestPlayingBuzzPausesAndContinueReleasesSlot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateGame(ctx, "quiz", testPlaylist(2), []TeamInput{
		{Name: "T", BuzzerID: "deadbeef0001"},
	}, false); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := svc.GameConfigured(ctx); err != nil {
		t.Fatalf("GameConfigured: %v", err)
	}

	canAnswer, err := svc.HandleBuzz("deadbeef0001")
	if err != nil {
		t.Fatalf("playing buzz: %v", err)
	}
	if !canAnswer {
		t.Fatalf("expected the pausing buzz to grant the answering slot")
	}
	current := svc.Machine.Current()
	if !(current.Kind == phase.Running && current.Running == phase.RunningPaused && current.Pause == phase.PauseBuzz) {
		t.Fatalf("expected Paused(Buzz), got %v", current)
	}
	if current.BuzzID != "deadbeef0001" {
		t.Fatalf("expected paused buzzer id recorded, got %q", current.BuzzID)
	}

	// A second buzz while paused is rejected and grants nothing.
	if canAnswer, _ := svc.HandleBuzz("deadbeef0001"); canAnswer {
		t.Fatalf("expected buzz during pause to be rejected")
	}

	if err := svc.ContinuePlaying(ctx); err != nil {
		t.Fatalf("ContinuePlaying: %v", err)
	}
	current = svc.Machine.Current()
	if !(current.Kind == phase.Running && current.Running == phase.RunningPlaying) {
		t.Fatalf("expected Playing after continue, got %v", current)
	}
}

func TestPrepReadyBuzzBehaviour(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, ch, cancel := svc.Bus.Public.Subscribe()
	defer cancel()

	if _, err := svc.CreateGame(ctx, "quiz", testPlaylist(2), []TeamInput{
		{Name: "A", BuzzerID: "deadbeef0001"}, {Name: "B"},
	}, false); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	// Bound buzzer: test_buzz.
	if _, err := svc.HandleBuzz("deadbeef0001"); err != nil {
		t.Fatalf("test buzz: %v", err)
	}
	if n := countByName(drain(ch), "test_buzz"); n != 1 {
		t.Fatalf("expected a test_buzz event, got %d", n)
	}

	// Unknown buzzer while a team still lacks one: intentionally ignored.
	if _, err := svc.HandleBuzz("deadbeef0999"); err != nil {
		t.Fatalf("expected silent ignore, got %v", err)
	}
	if got := svc.Session.Snapshot().Teams.Len(); got != 2 {
		t.Fatalf("expected no auto-created team while one is unassigned, got %d teams", got)
	}

	// Once every team holds a buzzer, an unknown one auto-creates a team.
	if _, err := svc.Session.AssignBuzzer(svc.Session.Snapshot().Teams.Ordered()[1].ID, "deadbeef0002"); err != nil {
		t.Fatalf("AssignBuzzer: %v", err)
	}
	if _, err := svc.HandleBuzz("deadbeef0003"); err != nil {
		t.Fatalf("auto-create buzz: %v", err)
	}
	snap := svc.Session.Snapshot()
	if snap.Teams.Len() != 3 {
		t.Fatalf("expected auto-created third team, got %d teams", snap.Teams.Len())
	}
	created := snap.Teams.Ordered()[2]
	if created.BuzzerID != "deadbeef0003" || created.Name != "Team 3" {
		t.Fatalf("unexpected auto-created team %+v", created)
	}
}

func TestDeleteTeamDuringPairingAdvancesTarget(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateGame(ctx, "quiz", testPlaylist(2), []TeamInput{
		{Name: "A"}, {Name: "B"}, {Name: "C", BuzzerID: "deadbeef0003"},
	}, false); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := svc.StartPairing(ctx); err != nil {
		t.Fatalf("StartPairing: %v", err)
	}
	teams := svc.Session.Snapshot().Teams.Ordered()

	// A is the target; deleting it must advance to B and prune the
	// pairing snapshot so an abort cannot resurrect A.
	if err := svc.DeleteTeam(ctx, teams[0].ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	pairing := svc.Machine.PairingSnapshot()
	if pairing == nil || pairing.PairingTeamID != teams[1].ID {
		t.Fatalf("expected pairing target advanced to team B")
	}
	for _, snap := range pairing.Snapshot {
		if snap.ID == teams[0].ID {
			t.Fatalf("expected deleted team pruned from pairing snapshot")
		}
	}
}

func TestAbortPairingRestoresRoster(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateGame(ctx, "quiz", testPlaylist(2), []TeamInput{
		{Name: "A"}, {Name: "B"},
	}, false); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := svc.StartPairing(ctx); err != nil {
		t.Fatalf("StartPairing: %v", err)
	}
	if _, err := svc.HandleBuzz("deadbeef0001"); err != nil {
		t.Fatalf("pairing buzz: %v", err)
	}
	if err := svc.AbortPairing(ctx); err != nil {
		t.Fatalf("AbortPairing: %v", err)
	}

	current := svc.Machine.Current()
	if !(current.Kind == phase.Running && current.Running == phase.RunningPrep && current.Prep == phase.PrepReady) {
		t.Fatalf("expected Prep(Ready) after abort, got %v", current)
	}
	for _, team := range svc.Session.Snapshot().Teams.Ordered() {
		if team.BuzzerID != "" {
			t.Fatalf("expected roster restored to pre-pairing state, team %s still has %q", team.Name, team.BuzzerID)
		}
	}
}
