package buzzer

import "testing"

func TestValidID(t *testing.T) {
	cases := map[string]bool{
		"0123456789ab": true,
		"ABCDEF012345": false, // uppercase not allowed
		"0123456789a":  false, // too short
		"0123456789abc": false, // too long
		"gggggggggggg": false, // not hex
		"":              false,
	}
	for id, want := range cases {
		if got := ValidID(id); got != want {
			t.Errorf("ValidID(%q) = %v, want %v", id, got, want)
		}
	}
}
