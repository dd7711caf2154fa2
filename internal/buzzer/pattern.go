package buzzer

import "neon-beat-back/internal/model"

// Light pattern frames pushed to a device's LED ring. The wire shape is
// {"pattern":{"type":...,"details":{...}}}.
const (
	PatternBlink = "blink"
	PatternWave  = "wave"
	PatternOff   = "off"
)

// PatternDetails parameterizes a light pattern. DC is the duty cycle in
// [0,1]; fields the device does not need for a given type are zero.
type PatternDetails struct {
	DurationMs uint32          `json:"duration_ms,omitempty"`
	PeriodMs   uint32          `json:"period_ms,omitempty"`
	DC         float64         `json:"dc,omitempty"`
	Color      model.TeamColor `json:"color"`
}

type Pattern struct {
	Type    string         `json:"type"`
	Details PatternDetails `json:"details"`
}

type patternFrame struct {
	Pattern Pattern `json:"pattern"`
}

// BlinkPattern flashes the device in a team's color, used as assignment
// feedback during pairing.
func BlinkPattern(color model.TeamColor) Pattern {
	return Pattern{Type: PatternBlink, Details: PatternDetails{DurationMs: 2000, PeriodMs: 250, DC: 0.5, Color: color}}
}

// WavePattern pulses the device while it holds the answering slot.
func WavePattern(color model.TeamColor) Pattern {
	return Pattern{Type: PatternWave, Details: PatternDetails{PeriodMs: 1000, DC: 0.8, Color: color}}
}

// OffPattern extinguishes the device's ring.
func OffPattern() Pattern {
	return Pattern{Type: PatternOff}
}

// SendPattern pushes a light pattern to this buzzer.
func (c *Connection) SendPattern(p Pattern) {
	_ = c.writeJSON(patternFrame{Pattern: p})
}

// SendPattern pushes a light pattern to id if it is connected, dropping
// the frame otherwise.
func (r *Registry) SendPattern(id string, p Pattern) {
	if c, ok := r.Get(id); ok {
		c.SendPattern(p)
	}
}
