package model

import "github.com/google/uuid"

// PointField is one guessable element of a song (artist, title, ...),
// worth a fixed number of points when found.
type PointField struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Points uint8  `json:"points"`
}

// Song is one entry of a Playlist.
type Song struct {
	StartsAtMs      uint64       `json:"starts_at_ms"`
	GuessDurationMs uint64       `json:"guess_duration_ms"`
	URL             string       `json:"url"`
	PointFields     []PointField `json:"point_fields"`
	BonusFields     []PointField `json:"bonus_fields"`
}

// HasField reports whether key is a declared point or bonus field,
// matching the set that the session store's MarkField call verifies
// against before recording a discovery.
func (s *Song) HasField(kind FieldKind, key string) bool {
	fields := s.PointFields
	if kind == BonusField {
		fields = s.BonusFields
	}
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// FieldKind distinguishes point fields from bonus fields.
type FieldKind int

const (
	PointFieldKind FieldKind = iota
	BonusField
)

// Playlist is an ordered mapping of song ID to Song.
type Playlist struct {
	ID    uuid.UUID      `json:"id"`
	Name  string         `json:"name"`
	Songs map[int]*Song  `json:"-"`
	Order []int          `json:"-"`
}

// SongIDs returns the playlist's song IDs in stable ascending order,
// used to build a freshly-shuffled playlist_song_order.
func (p *Playlist) SongIDs() []int {
	out := make([]int, len(p.Order))
	copy(out, p.Order)
	return out
}

func (p *Playlist) Get(id int) (*Song, bool) {
	s, ok := p.Songs[id]
	return s, ok
}

// Clone deep-copies the playlist for safe hand-off across lock boundaries.
func (p *Playlist) Clone() *Playlist {
	if p == nil {
		return nil
	}
	cp := &Playlist{ID: p.ID, Name: p.Name, Songs: make(map[int]*Song, len(p.Songs))}
	cp.Order = append(cp.Order, p.Order...)
	for id, s := range p.Songs {
		songCopy := *s
		songCopy.PointFields = append([]PointField(nil), s.PointFields...)
		songCopy.BonusFields = append([]PointField(nil), s.BonusFields...)
		cp.Songs[id] = &songCopy
	}
	return cp
}
