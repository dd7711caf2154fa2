// Package phase implements the gated game-phase state machine: the legal
// transition table, the plan/apply/abort protocol, and the transition
// gate that serializes side-effecting work against phase changes.
package phase

import "neon-beat-back/internal/model"

// RunningPhase is the sub-state while GamePhase is Running.
type RunningPhase int

const (
	RunningPrep RunningPhase = iota
	RunningPlaying
	RunningPaused
	RunningReveal
)

// PrepStatus distinguishes the two Prep sub-states.
type PrepStatus int

const (
	PrepReady PrepStatus = iota
	PrepPairing
)

// PauseKind distinguishes a manually-triggered pause from one triggered by
// a buzzer claiming the answering slot.
type PauseKind int

const (
	PauseManual PauseKind = iota
	PauseBuzz
)

// FinishReason records why the game moved from Running to Scores.
type FinishReason int

const (
	FinishPlaylistCompleted FinishReason = iota
	FinishAborted
)

// Kind enumerates the outer phase tags.
type Kind int

const (
	Idle Kind = iota
	Running
	Scores
)

// Phase is the full tagged-union game phase.
type Phase struct {
	Kind         Kind
	Running      RunningPhase
	Prep         PrepStatus
	Pause        PauseKind
	BuzzID       string // set when Pause == PauseBuzz
	Pairing      *model.PairingSession
	FinishReason *FinishReason
}

// IdlePhase constructs the Idle phase.
func IdlePhase() Phase { return Phase{Kind: Idle} }

// String renders the public wire-level phase name.
func (p Phase) String() string {
	switch p.Kind {
	case Idle:
		return "idle"
	case Scores:
		return "scores"
	case Running:
		switch p.Running {
		case RunningPrep:
			if p.Prep == PrepPairing {
				return "prep_pairing"
			}
			return "prep_ready"
		case RunningPlaying:
			return "playing"
		case RunningPaused:
			return "pause"
		case RunningReveal:
			return "reveal"
		}
	}
	return "unknown"
}
