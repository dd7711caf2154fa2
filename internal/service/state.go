// Package service composes the process-wide shared resources into a
// single entry-point surface: every admin REST handler, SSE handshake, and
// buzzer message ultimately calls through a GameService.
package service

import (
	"context"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/buzzer"
	"neon-beat-back/internal/config"
	"neon-beat-back/internal/events"
	"neon-beat-back/internal/phase"
	"neon-beat-back/internal/session"
	"neon-beat-back/internal/storage"
)

// GameService is the single shared-state composition root.
type GameService struct {
	Session    *session.Store
	Machine    *phase.GameStateMachine
	Gate       *phase.TransitionGate
	Bus        *events.Bus
	Buzzers    *buzzer.Registry
	Supervisor *storage.Supervisor
	Config     *config.Holder
}

func New(
	sess *session.Store,
	machine *phase.GameStateMachine,
	bus *events.Bus,
	buzzers *buzzer.Registry,
	supervisor *storage.Supervisor,
	cfg *config.Holder,
) *GameService {
	return &GameService{
		Session:    sess,
		Machine:    machine,
		Gate:       &phase.TransitionGate{},
		Bus:        bus,
		Buzzers:    buzzers,
		Supervisor: supervisor,
		Config:     cfg,
	}
}

// persistSession saves the current session, reporting Degraded when no
// storage backend is installed.
func (s *GameService) persistSession(ctx context.Context) error {
	return s.Session.Persist(ctx, s.Supervisor.Store())
}

// requireRunning rejects the call unless the phase is currently Running
// (any sub-phase), per adjust_score's precondition.
func (s *GameService) requireRunning() error {
	if s.Machine.Current().Kind != phase.Running {
		return apperrors.InvalidState("operation requires a running phase")
	}
	return nil
}

// requireRunningSubphase rejects the call unless the phase is one of
// Playing, Paused, or Reveal — mark_field's precondition (it explicitly
// excludes Prep).
func (s *GameService) requireRunningSubphase() error {
	current := s.Machine.Current()
	if current.Kind != phase.Running {
		return apperrors.InvalidState("operation requires a running phase")
	}
	switch current.Running {
	case phase.RunningPlaying, phase.RunningPaused, phase.RunningReveal:
		return nil
	default:
		return apperrors.InvalidState("operation requires a running phase outside of team setup")
	}
}
