package model

// TeamColor is an HSV triple. Hue is in degrees and is not normalized at
// rest (callers may hand back a value outside [0,360)); Saturation and
// Value are expected in [0,1], but neither this type nor the config loader
// clamps them.
type TeamColor struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Value      float64 `json:"value"`
}

// DefaultColor is the fallback used when every configured palette entry is
// already taken by a team.
var DefaultColor = TeamColor{Hue: 0, Saturation: 0, Value: 1}

func (c TeamColor) Equal(other TeamColor) bool {
	return c.Hue == other.Hue && c.Saturation == other.Saturation && c.Value == other.Value
}
