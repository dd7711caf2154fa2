package phase

import (
	"sync"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/model"
)

// PlanID identifies a pending plan. Zero value never matches a real plan.
type PlanID uint64

// Plan is the result of a successful Plan() call: the transition it
// describes has been validated against the current phase but not yet
// committed.
type Plan struct {
	ID      PlanID
	From    Phase
	To      Phase
	version uint64
}

// GameStateMachine holds the current phase plus at most one pending plan.
// All methods are safe for concurrent use; callers that need to serialize
// a plan/work/apply sequence should additionally hold a TransitionGate
// (see gate.go) — the machine's own lock only protects the single
// Plan/Apply/Abort call it is invoked for.
type GameStateMachine struct {
	mu           sync.RWMutex
	current      Phase
	lastFinish   *FinishReason
	version      uint64
	nextPlanID   PlanID
	pending      *Plan
}

func NewGameStateMachine() *GameStateMachine {
	return &GameStateMachine{current: IdlePhase()}
}

// Current returns the current phase. The Pairing field, if any, is
// deep-copied so callers never observe a mutation made by MutatePairing
// after this call returns.
func (m *GameStateMachine) Current() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.current
	p.Pairing = p.Pairing.Clone()
	return p
}

// PairingSnapshot returns a deep copy of the active pairing session, or
// nil when the phase is not Prep(Pairing).
func (m *GameStateMachine) PairingSnapshot() *model.PairingSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Pairing.Clone()
}

// MutatePairing applies fn to the live pairing session in place, used to
// advance the pairing target after a roster change without going through
// the full Plan/Apply protocol (the pairing target is session data, not a
// phase tag). Fails if the phase is not currently Prep(Pairing).
func (m *GameStateMachine) MutatePairing(fn func(*model.PairingSession)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !(m.current.Kind == Running && m.current.Running == RunningPrep && m.current.Prep == PrepPairing) || m.current.Pairing == nil {
		return apperrors.InvalidState("pairing is not active")
	}
	fn(m.current.Pairing)
	return nil
}

// LastFinishReason returns the most recent finish reason, retained until
// EndGame clears it.
func (m *GameStateMachine) LastFinishReason() *FinishReason {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFinish
}

// Plan validates evt against the current phase and, if legal, records a
// pending plan. At most one plan may be pending at a time.
func (m *GameStateMachine) Plan(evt Event) (Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil {
		return Plan{}, apperrors.InvalidState("a transition is already pending")
	}

	to, err := computeTransition(m.current, evt)
	if err != nil {
		return Plan{}, err
	}

	m.nextPlanID++
	p := Plan{ID: m.nextPlanID, From: m.current, To: to, version: m.version}
	m.pending = &p
	return p, nil
}

// Apply commits a previously planned transition. It fails if no plan is
// pending, the plan ID does not match, the phase has moved since planning,
// or the version counter has moved (defensive double-check of the same
// condition, kept distinct so callers can tell the two apart).
func (m *GameStateMachine) Apply(planID PlanID) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return Phase{}, apperrors.InvalidState("no pending transition")
	}
	if m.pending.ID != planID {
		return Phase{}, apperrors.InvalidState("plan id mismatch")
	}
	if !samePhase(m.current, m.pending.From) {
		m.pending = nil
		return Phase{}, apperrors.InvalidState("phase changed since plan")
	}
	if m.version != m.pending.version {
		m.pending = nil
		return Phase{}, apperrors.InvalidState("version mismatch")
	}

	newPhase := m.pending.To
	if newPhase.Kind == Scores {
		fr := newPhase.FinishReason
		m.lastFinish = fr
	}
	if newPhase.Kind == Idle {
		m.lastFinish = nil
	}
	m.current = newPhase
	m.version++
	m.pending = nil
	out := m.current
	out.Pairing = out.Pairing.Clone()
	return out, nil
}

// Abort discards the pending plan without changing the current phase.
func (m *GameStateMachine) Abort(planID PlanID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return apperrors.InvalidState("no pending transition")
	}
	if m.pending.ID != planID {
		return apperrors.InvalidState("plan id mismatch")
	}
	m.pending = nil
	return nil
}

func samePhase(a, b Phase) bool {
	if a.Kind != b.Kind || a.Running != b.Running || a.Prep != b.Prep || a.Pause != b.Pause || a.BuzzID != b.BuzzID {
		return false
	}
	return true
}

// computeTransition validates evt against current and returns the phase it
// leads to.
func computeTransition(current Phase, evt Event) (Phase, error) {
	switch evt.Kind {
	case EventStartGame:
		if current.Kind != Idle {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningPrep, Prep: PrepReady}, nil

	case EventStartPairing:
		if !(current.Kind == Running && current.Running == RunningPrep && current.Prep == PrepReady) {
			return Phase{}, invalidTransition()
		}
		if evt.PairingTeam == nil {
			return Phase{}, apperrors.InvalidState("pairing requires at least one team")
		}
		return Phase{
			Kind:    Running,
			Running: RunningPrep,
			Prep:    PrepPairing,
			Pairing: &model.PairingSession{PairingTeamID: evt.PairingTeam.ID, Snapshot: evt.Roster},
		}, nil

	case EventAbortPairing:
		if !(current.Kind == Running && current.Running == RunningPrep && current.Prep == PrepPairing) {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningPrep, Prep: PrepReady}, nil

	case EventPairingFinished:
		if !(current.Kind == Running && current.Running == RunningPrep && current.Prep == PrepPairing) {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningPlaying}, nil

	case EventGameConfigured:
		if !(current.Kind == Running && current.Running == RunningPrep && current.Prep == PrepReady) {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningPlaying}, nil

	case EventPause:
		if !(current.Kind == Running && current.Running == RunningPlaying) {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningPaused, Pause: evt.PauseKind, BuzzID: evt.BuzzID}, nil

	case EventReveal:
		if !(current.Kind == Running && (current.Running == RunningPlaying || current.Running == RunningPaused)) {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningReveal}, nil

	case EventContinuePlaying:
		if !(current.Kind == Running && current.Running == RunningPaused) {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningPlaying}, nil

	case EventNextSong:
		if !(current.Kind == Running && current.Running == RunningReveal) {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Running, Running: RunningPlaying}, nil

	case EventFinish:
		if current.Kind != Running {
			return Phase{}, invalidTransition()
		}
		reason := evt.FinishReason
		return Phase{Kind: Scores, FinishReason: &reason}, nil

	case EventEndGame:
		if current.Kind != Scores {
			return Phase{}, invalidTransition()
		}
		return Phase{Kind: Idle}, nil
	}
	return Phase{}, invalidTransition()
}

func invalidTransition() error {
	return apperrors.InvalidState("invalid transition for current phase")
}
