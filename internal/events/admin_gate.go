package events

import (
	"sync"

	"github.com/google/uuid"

	"neon-beat-back/internal/apperrors"
)

// AdminGate allows at most one admin subscriber at a time, identified by a
// freshly generated token handed back in the admin handshake.
type AdminGate struct {
	mu    sync.Mutex
	token string
}

// Claim generates and holds a new admin token, or returns an error if one
// is already held.
func (g *AdminGate) Claim() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" {
		return "", apperrors.Unauthorized("an admin connection is already active")
	}
	g.token = uuid.New().String()
	return g.token, nil
}

// Release clears the held token if it matches, making the slot available
// to the next subscriber. Called on admin disconnect.
func (g *AdminGate) Release(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == token {
		g.token = ""
	}
}
