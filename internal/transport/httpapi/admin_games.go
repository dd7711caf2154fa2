package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/model"
	"neon-beat-back/internal/service"
)

type createPlaylistRequest struct {
	Name  string        `json:"name"`
	Songs []songRequest `json:"songs"`
}

type songRequest struct {
	StartsAtMs      uint64               `json:"starts_at_ms"`
	GuessDurationMs uint64               `json:"guess_duration_ms"`
	URL             string               `json:"url"`
	PointFields     []pointFieldRequest  `json:"point_fields"`
	BonusFields     []pointFieldRequest  `json:"bonus_fields"`
}

type pointFieldRequest struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Points uint8  `json:"points"`
}

func (req songRequest) toModel() model.Song {
	return model.Song{
		StartsAtMs:      req.StartsAtMs,
		GuessDurationMs: req.GuessDurationMs,
		URL:             req.URL,
		PointFields:     toPointFieldModels(req.PointFields),
		BonusFields:     toPointFieldModels(req.BonusFields),
	}
}

func toPointFieldModels(in []pointFieldRequest) []model.PointField {
	out := make([]model.PointField, 0, len(in))
	for _, f := range in {
		out = append(out, model.PointField{Key: f.Key, Value: f.Value, Points: f.Points})
	}
	return out
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	items, err := s.game.ListPlaylists(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	songs := make([]model.Song, 0, len(req.Songs))
	for _, sr := range req.Songs {
		songs = append(songs, sr.toModel())
	}
	playlist, err := s.game.CreatePlaylist(r.Context(), req.Name, songs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlaylistDTO(playlist))
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	items, err := s.game.ListGames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createGameRequest struct {
	Name       string             `json:"name"`
	PlaylistID string             `json:"playlist_id"`
	Teams      []teamInputRequest `json:"teams"`
	Shuffle    bool               `json:"shuffle"`
}

type teamInputRequest struct {
	Name     string           `json:"name"`
	BuzzerID string           `json:"buzzer_id"`
	Color    *model.TeamColor `json:"color,omitempty"`
	Score    int32            `json:"score"`
}

func toTeamInputs(in []teamInputRequest) []service.TeamInput {
	out := make([]service.TeamInput, 0, len(in))
	for _, t := range in {
		out = append(out, service.TeamInput{Name: t.Name, BuzzerID: t.BuzzerID, Color: t.Color, Score: t.Score})
	}
	return out
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	playlistID, err := uuid.Parse(req.PlaylistID)
	if err != nil {
		writeError(w, apperrors.InvalidInput("playlist_id must be a valid uuid"))
		return
	}
	playlist, err := s.game.FindPlaylist(r.Context(), playlistID)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.game.CreateGame(r.Context(), req.Name, playlist, toTeamInputs(req.Teams), req.Shuffle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGameSessionDTO(sess))
}

type loadGameRequest struct {
	Shuffle bool `json:"shuffle"`
}

func (s *Server) handleLoadGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("gameID must be a valid uuid"))
		return
	}
	// The body is optional; an absent one means shuffle=false.
	var req loadGameRequest
	if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil && !errors.Is(derr, io.EOF) {
		writeError(w, apperrors.InvalidInput("malformed json request body"))
		return
	}
	sess, err := s.game.LoadGame(r.Context(), id, req.Shuffle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameSessionDTO(sess))
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("gameID must be a valid uuid"))
		return
	}
	if err := s.game.DeleteGame(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
