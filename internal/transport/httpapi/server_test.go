package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"neon-beat-back/internal/buzzer"
	"neon-beat-back/internal/config"
	"neon-beat-back/internal/events"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/service"
	"neon-beat-back/internal/session"
	"neon-beat-back/internal/storage"
)

type stubStore struct{}

func (stubStore) SaveGame(ctx context.Context, g *model.GameSession) error  { return nil }
func (stubStore) SavePlaylist(ctx context.Context, p *model.Playlist) error { return nil }
func (stubStore) FindGame(ctx context.Context, id uuid.UUID) (*model.GameSession, error) {
	return nil, nil
}
func (stubStore) FindPlaylist(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	return nil, nil
}
func (stubStore) ListGames(ctx context.Context) ([]storage.GameListItem, error)         { return nil, nil }
func (stubStore) ListPlaylists(ctx context.Context) ([]storage.PlaylistListItem, error) { return nil, nil }
func (stubStore) DeleteGame(ctx context.Context, id uuid.UUID) (bool, error)            { return false, nil }
func (stubStore) SaveTeam(ctx context.Context, gameID uuid.UUID, t *model.Team) error   { return nil }
func (stubStore) DeleteTeam(ctx context.Context, gameID, teamID uuid.UUID) error        { return nil }
func (stubStore) HealthCheck(ctx context.Context) error                                 { return nil }
func (stubStore) TryReconnect(ctx context.Context) error                                { return nil }
func (stubStore) Close() error                                                          { return nil }

func newTestRouter(t *testing.T) (http.Handler, *service.GameService) {
	t.Helper()
	sessions := session.NewStore()
	machine := phase.NewGameStateMachine()
	bus := events.NewBus(sessions.CurrentPhaseSession)
	sup := storage.NewSupervisor(func(ctx context.Context) (storage.GameStore, error) {
		return nil, errors.New("connect loop not used in tests")
	}, bus)
	sup.Install(stubStore{})
	cfg := config.NewHolder(config.AppConfig{Colors: config.DefaultColors()})
	svc := service.New(sessions, machine, bus, buzzer.NewRegistry(), sup, cfg)
	return NewRouter(svc, false), svc
}

func TestHealthReportsDegradedFlag(t *testing.T) {
	r, svc := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %q", body["status"])
	}

	svc.Bus.SetDegraded(true)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "degraded" {
		t.Fatalf("expected status degraded, got %q", body["status"])
	}
}

func TestPublicSnapshotStartsIdle(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/public/snapshot", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap snapshotDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if snap.Phase != "idle" {
		t.Fatalf("expected phase idle, got %q", snap.Phase)
	}
	if snap.Session != nil {
		t.Fatalf("expected no session before a game is created")
	}
}

func TestInvalidTransitionMapsToConflict(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/pause", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for pause from idle, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Error.Code != "conflict" {
		t.Fatalf("expected conflict code, got %q", body.Error.Code)
	}
}

func TestUnknownRouteReturnsJSONNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected json 404 envelope: %v", err)
	}
	if body.Error.Code != "not_found" {
		t.Fatalf("expected not_found code, got %q", body.Error.Code)
	}
}
