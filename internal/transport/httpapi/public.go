package httpapi

import "net/http"

// handlePublicSnapshot serves GET /v1/public/snapshot: the current phase,
// degraded flag, and session, for clients that load before subscribing to
// the SSE stream (or reconnect and need to resync).
func (s *Server) handlePublicSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotDTO(s.game.Snapshot()))
}
