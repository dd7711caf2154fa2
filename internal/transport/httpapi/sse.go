package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"neon-beat-back/internal/events"
	"neon-beat-back/internal/storage/metrics"
)

const keepAliveInterval = 15 * time.Second

// writeEnvelope writes one SSE frame: "event: <name>\ndata: <json>\n\n".
func writeEnvelope(w http.ResponseWriter, flusher http.Flusher, env events.Envelope) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Name, env.Data)
	flusher.Flush()
}

func writeKeepAlive(w http.ResponseWriter, flusher http.Flusher) {
	fmt.Fprint(w, ": keep-alive\n\n")
	flusher.Flush()
}

// servePublicSSE forwards the public hub to a subscriber, plus a handshake
// frame and degraded-watch-driven system_status frames.
func (s *Server) servePublicSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	_, ch, cancel := s.game.Bus.Public.Subscribe()
	defer cancel()
	metrics.PublicSubscribers.Inc()
	defer metrics.PublicSubscribers.Dec()

	writeEnvelope(w, flusher, events.EncodeHandshake(events.HandshakeDTO{
		Stream:   "public",
		Degraded: s.game.Bus.Degraded.Value(),
	}))

	s.forwardSSE(w, r, flusher, ch, s.game.Bus.Degraded.Changed())
}

// serveAdminSSE is the same forwarding loop, but claims (and releases) the
// single admin subscriber slot via the admin gate.
func (s *Server) serveAdminSSE(w http.ResponseWriter, r *http.Request) {
	token, err := s.game.Bus.Gate.Claim()
	if err != nil {
		writeError(w, err)
		return
	}
	defer s.game.Bus.Gate.Release(token)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	_, ch, cancel := s.game.Bus.Admin.Subscribe()
	defer cancel()
	metrics.AdminSubscribers.Inc()
	defer metrics.AdminSubscribers.Dec()

	writeEnvelope(w, flusher, events.EncodeHandshake(events.HandshakeDTO{
		Stream:   "admin",
		Degraded: s.game.Bus.Degraded.Value(),
		Token:    token,
	}))

	s.forwardSSE(w, r, flusher, ch, s.game.Bus.Degraded.Changed())
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

// forwardSSE runs until the client disconnects: it selects across the hub
// channel, the degraded watch, and a keep-alive ticker. degradedCh only
// ever fires once (DegradedWatch.Changed's contract); on fire, a fresh
// frame is written and the loop re-subscribes for the next change.
func (s *Server) forwardSSE(w http.ResponseWriter, r *http.Request, flusher http.Flusher, ch <-chan events.Envelope, degradedCh <-chan bool) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case env, ok := <-ch:
			if !ok {
				return
			}
			writeEnvelope(w, flusher, env)
		case degraded, ok := <-degradedCh:
			if !ok {
				return
			}
			writeEnvelope(w, flusher, events.EncodeSystemStatus(events.SystemStatusDTO{Degraded: degraded}))
			degradedCh = s.game.Bus.Degraded.Changed()
		case <-ticker.C:
			writeKeepAlive(w, flusher)
		}
	}
}
