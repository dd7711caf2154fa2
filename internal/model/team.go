package model

import (
	"time"

	"github.com/google/uuid"
)

// Team is one contestant team in a GameSession.
type Team struct {
	ID        uuid.UUID `json:"id"`
	BuzzerID  string    `json:"buzzer_id,omitempty"`
	Name      string    `json:"name"`
	Score     int32     `json:"score"`
	Color     TeamColor `json:"color"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep-enough copy for safe hand-off across the session
// lock boundary (see internal/session).
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// TeamSet is an insertion-ordered mapping of team ID to Team: O(1) lookup
// by ID plus a stable iteration order for the pairing workflow's "next
// unassigned team" rule.
type TeamSet struct {
	byID  map[uuid.UUID]*Team
	order []uuid.UUID
}

func NewTeamSet() *TeamSet {
	return &TeamSet{byID: make(map[uuid.UUID]*Team)}
}

// Add inserts a new team at the end of the iteration order. It is a no-op
// on the order if the ID already exists (the team is merely replaced).
func (s *TeamSet) Add(t *Team) {
	if _, exists := s.byID[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.byID[t.ID] = t
}

// Remove deletes a team, preserving the relative order of the remainder.
func (s *TeamSet) Remove(id uuid.UUID) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *TeamSet) Get(id uuid.UUID) (*Team, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// FindByBuzzer returns the team currently bound to buzzerID, if any.
func (s *TeamSet) FindByBuzzer(buzzerID string) (*Team, bool) {
	for _, id := range s.order {
		t := s.byID[id]
		if t.BuzzerID == buzzerID {
			return t, true
		}
	}
	return nil, false
}

// NextUnassigned returns the first team (in insertion order) with no
// buzzer bound, used to drive the pairing workflow.
func (s *TeamSet) NextUnassigned() (*Team, bool) {
	for _, id := range s.order {
		t := s.byID[id]
		if t.BuzzerID == "" {
			return t, true
		}
	}
	return nil, false
}

// AllAssigned reports whether every team currently has a buzzer bound,
// used to gate test_buzz auto-team-creation during Prep(Ready).
func (s *TeamSet) AllAssigned() bool {
	for _, id := range s.order {
		if s.byID[id].BuzzerID == "" {
			return false
		}
	}
	return true
}

func (s *TeamSet) Len() int { return len(s.order) }

// Ordered returns the teams in insertion order. The returned slice must
// not be mutated by the caller.
func (s *TeamSet) Ordered() []*Team {
	out := make([]*Team, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Clone deep-copies the set, used when snapshotting the roster for
// pairing and when handing a session out across the store's lock boundary.
func (s *TeamSet) Clone() *TeamSet {
	out := NewTeamSet()
	for _, t := range s.Ordered() {
		out.Add(t.Clone())
	}
	return out
}

// FirstUnusedColor returns the first palette entry not already in use by
// any team, falling back to DefaultColor when the palette is exhausted.
func (s *TeamSet) FirstUnusedColor(palette []TeamColor) TeamColor {
	for _, c := range palette {
		used := false
		for _, id := range s.order {
			if s.byID[id].Color.Equal(c) {
				used = true
				break
			}
		}
		if !used {
			return c
		}
	}
	return DefaultColor
}
