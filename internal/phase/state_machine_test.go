package phase

import (
	"context"
	"testing"
	"time"

	"neon-beat-back/internal/apperrors"
)

func TestHappyPathSequence(t *testing.T) {
	m := NewGameStateMachine()
	gate := &TransitionGate{}

	events := []Event{
		{Kind: EventStartGame},
		{Kind: EventGameConfigured},
		{Kind: EventPause, PauseKind: PauseManual},
		{Kind: EventReveal},
		{Kind: EventNextSong},
		{Kind: EventPause, PauseKind: PauseManual},
		{Kind: EventReveal},
		{Kind: EventFinish, FinishReason: FinishPlaylistCompleted},
		{Kind: EventEndGame},
	}

	var last Phase
	for _, evt := range events {
		_, newPhase, err := RunTransition(context.Background(), gate, m, evt, func(ctx context.Context, p Plan) (struct{}, error) {
			return struct{}{}, nil
		})
		if err != nil {
			t.Fatalf("event %v failed: %v", evt.Kind, err)
		}
		last = newPhase
	}
	if last.Kind != Idle {
		t.Fatalf("expected final phase Idle, got %v", last)
	}
	if m.LastFinishReason() != nil {
		t.Fatalf("expected finish reason cleared after EndGame")
	}
}

func TestInvalidTransitionIsNoop(t *testing.T) {
	m := NewGameStateMachine()
	gate := &TransitionGate{}

	_, _, err := RunTransition(context.Background(), gate, m, Event{Kind: EventReveal}, func(ctx context.Context, p Plan) (struct{}, error) {
		return struct{}{}, nil
	})
	if err == nil {
		t.Fatalf("expected invalid transition error from Idle")
	}
	if m.Current().Kind != Idle {
		t.Fatalf("phase should remain Idle after rejected transition")
	}
}

func TestTimeoutAbortsPlan(t *testing.T) {
	m := NewGameStateMachine()
	gate := &TransitionGate{Timeout: 50 * time.Millisecond}

	_, _, err := RunTransition(context.Background(), gate, m, Event{Kind: EventStartGame}, func(ctx context.Context, p Plan) (struct{}, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return struct{}{}, nil
		case <-ctx.Done():
			return struct{}{}, ctx.Err()
		}
	})
	if se, ok := apperrors.As(err); !ok || se.Kind != apperrors.KindTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if m.Current().Kind != Idle {
		t.Fatalf("phase must be unchanged after a timed-out transition")
	}

	// A subsequent valid plan for the same event must still succeed.
	_, newPhase, err := RunTransition(context.Background(), gate, m, Event{Kind: EventStartGame}, func(ctx context.Context, p Plan) (struct{}, error) {
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if newPhase.Kind != Running {
		t.Fatalf("expected Running after retry, got %v", newPhase)
	}
}
