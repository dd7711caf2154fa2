package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/service"
)

// Gameplay action handlers: each one forwards to the matching GameService
// entry point and reports the phase it landed in (or the mutated entity).

type phaseResponse struct {
	Phase string `json:"phase"`
}

func (s *Server) respondPhase(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, phaseResponse{Phase: s.game.Machine.Current().String()})
}

func (s *Server) handleStartPairing(w http.ResponseWriter, r *http.Request) {
	if err := s.game.StartPairing(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

func (s *Server) handleAbortPairing(w http.ResponseWriter, r *http.Request) {
	if err := s.game.AbortPairing(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

func (s *Server) handleGameConfigured(w http.ResponseWriter, r *http.Request) {
	if err := s.game.GameConfigured(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Pause(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

func (s *Server) handleContinuePlaying(w http.ResponseWriter, r *http.Request) {
	if err := s.game.ContinuePlaying(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Reveal(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

type nextSongResponse struct {
	Phase    string `json:"phase"`
	Finished bool   `json:"finished"`
}

func (s *Server) handleNextSong(w http.ResponseWriter, r *http.Request) {
	finished, err := s.game.NextSong(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nextSongResponse{Phase: s.game.Machine.Current().String(), Finished: finished})
}

func (s *Server) handleStopGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.StopGame(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.EndGame(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondPhase(w)
}

type markFieldRequest struct {
	Kind string `json:"kind"` // "point" | "bonus"
	Key  string `json:"key"`
}

func (s *Server) handleMarkField(w http.ResponseWriter, r *http.Request) {
	var req markFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var kind model.FieldKind
	switch req.Kind {
	case "point":
		kind = model.PointFieldKind
	case "bonus":
		kind = model.BonusField
	default:
		writeError(w, apperrors.InvalidInput("kind must be `point` or `bonus`"))
		return
	}
	if err := s.game.MarkField(r.Context(), kind, req.Key); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateAnswerRequest struct {
	Valid bool `json:"valid"`
}

func (s *Server) handleValidateAnswer(w http.ResponseWriter, r *http.Request) {
	var req validateAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.game.ValidateAnswer(r.Context(), req.Valid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustScoreRequest struct {
	BuzzerID string `json:"buzzer_id"`
	Delta    int32  `json:"delta"`
}

func (s *Server) handleAdjustScore(w http.ResponseWriter, r *http.Request) {
	var req adjustScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	team, err := s.game.AdjustScore(r.Context(), req.BuzzerID, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamDTO(team))
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamInputRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	team, err := s.game.CreateTeam(r.Context(), toTeamInputs([]teamInputRequest{req})[0])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamDTO(team))
}

type updateTeamRequest struct {
	Name  *string          `json:"name,omitempty"`
	Color *model.TeamColor `json:"color,omitempty"`
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("teamID must be a valid uuid"))
		return
	}
	var req updateTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	team, err := s.game.UpdateTeam(r.Context(), id, service.TeamUpdate{Name: req.Name, Color: req.Color})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamDTO(team))
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("teamID must be a valid uuid"))
		return
	}
	if err := s.game.DeleteTeam(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
