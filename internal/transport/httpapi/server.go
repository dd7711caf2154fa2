package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_mw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neon-beat-back/internal/buzzer"
	"neon-beat-back/internal/jsonutil"
	"neon-beat-back/internal/service"
)

// Server holds the shared dependencies every handler closes over.
type Server struct {
	game *service.GameService
}

// NewRouter builds the full chi router: global middleware (CORS, then
// Recoverer, then latency), public REST + SSE, rate-limited admin REST +
// SSE, the buzzer websocket upgrade, /healthz and /metrics.
func NewRouter(gameService *service.GameService, behindProxy bool) http.Handler {
	s := &Server{game: gameService}
	r := chi.NewRouter()

	r.Use(corsMiddleware())
	r.Use(chi_mw.Recoverer)
	r.Use(latencyMiddleware())

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/v1/public/sse", s.servePublicSSE)
	r.Get("/v1/public/snapshot", s.handlePublicSnapshot)

	buzzerHandler := buzzer.NewHandler(gameService.Buzzers, gameService)
	r.Handle("/v1/buzzer", buzzerHandler)

	r.Group(func(admin chi.Router) {
		admin.Use(rateLimitMiddleware(10, behindProxy))

		admin.Get("/v1/admin/sse", s.serveAdminSSE)
		admin.Get("/v1/admin/games", s.handleListGames)
		admin.Get("/v1/admin/playlists", s.handleListPlaylists)
		admin.Post("/v1/admin/playlists", s.handleCreatePlaylist)
		admin.Post("/v1/admin/games", s.handleCreateGame)
		admin.Post("/v1/admin/games/{gameID}/load", s.handleLoadGame)
		admin.Delete("/v1/admin/games/{gameID}", s.handleDeleteGame)

		admin.Post("/v1/admin/pairing/start", s.handleStartPairing)
		admin.Post("/v1/admin/pairing/abort", s.handleAbortPairing)
		admin.Post("/v1/admin/game/configured", s.handleGameConfigured)
		admin.Post("/v1/admin/pause", s.handlePause)
		admin.Post("/v1/admin/continue", s.handleContinuePlaying)
		admin.Post("/v1/admin/reveal", s.handleReveal)
		admin.Post("/v1/admin/next-song", s.handleNextSong)
		admin.Post("/v1/admin/stop", s.handleStopGame)
		admin.Post("/v1/admin/end", s.handleEndGame)

		admin.Post("/v1/admin/fields/mark", s.handleMarkField)
		admin.Post("/v1/admin/answer/validate", s.handleValidateAnswer)
		admin.Post("/v1/admin/score/adjust", s.handleAdjustScore)

		admin.Post("/v1/admin/teams", s.handleCreateTeam)
		admin.Patch("/v1/admin/teams/{teamID}", s.handleUpdateTeam)
		admin.Delete("/v1/admin/teams/{teamID}", s.handleDeleteTeam)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonutil.WriteJSON(w, http.StatusNotFound, errorBody{}.withMessage("not_found", "route does not exist"))
	})

	return r
}

func (eb errorBody) withMessage(code, message string) errorBody {
	eb.Error.Code = code
	eb.Error.Message = message
	return eb
}

// handleHealth reports whether the storage backend is currently degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.game.Bus.Degraded.Value() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
