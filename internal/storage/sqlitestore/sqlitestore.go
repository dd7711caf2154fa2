// Package sqlitestore is the reference GameStore backend, a pure-Go
// sqlite implementation used by the supervisor when no other storage
// backend is configured.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"neon-beat-back/internal/model"
	"neon-beat-back/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	playlist_id TEXT NOT NULL,
	playlist_song_order TEXT NOT NULL,
	current_song_index INTEGER,
	found_point_fields TEXT NOT NULL,
	found_bonus_fields TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS playlists (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	songs TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	buzzer_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	score INTEGER NOT NULL,
	color_hue REAL NOT NULL,
	color_saturation REAL NOT NULL,
	color_value REAL NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is a database/sql-backed GameStore. It satisfies
// neon-beat-back/internal/storage.GameStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite database at path and
// ensures the schema exists. Matches the Connector signature expected by
// the storage supervisor.
func Open(ctx context.Context, path string) (storage.GameStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// TryReconnect re-probes the pool. database/sql re-dials dropped
// connections on Ping, so a probe is a reconnect attempt here; backends
// with an explicit session concept would re-dial instead.
func (s *Store) TryReconnect(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) SavePlaylist(ctx context.Context, p *model.Playlist) error {
	songs := make(map[int]*model.Song, len(p.Order))
	for _, id := range p.Order {
		songs[id] = p.Songs[id]
	}
	blob, err := json.Marshal(songs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, songs) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, songs=excluded.songs`,
		p.ID.String(), p.Name, blob)
	return err
}

func (s *Store) FindPlaylist(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, songs FROM playlists WHERE id = ?`, id.String())
	var name string
	var blob []byte
	if err := row.Scan(&name, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var songs map[int]*model.Song
	if err := json.Unmarshal(blob, &songs); err != nil {
		return nil, err
	}
	pl := &model.Playlist{ID: id, Name: name, Songs: songs}
	for songID := range songs {
		pl.Order = append(pl.Order, songID)
	}
	sort.Ints(pl.Order)
	return pl, nil
}

func (s *Store) ListPlaylists(ctx context.Context) ([]storage.PlaylistListItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM playlists`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []storage.PlaylistListItem
	for rows.Next() {
		var idStr, name string
		if err := rows.Scan(&idStr, &name); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		out = append(out, storage.PlaylistListItem{ID: id, Name: name})
	}
	return out, rows.Err()
}

func (s *Store) SaveGame(ctx context.Context, g *model.GameSession) error {
	order, err := json.Marshal(g.PlaylistSongOrder)
	if err != nil {
		return err
	}
	foundPoints, _ := json.Marshal(g.FoundPointFields)
	foundBonus, _ := json.Marshal(g.FoundBonusFields)

	var currentIdx any
	if g.CurrentSongIndex != nil {
		currentIdx = *g.CurrentSongIndex
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (id, name, created_at, updated_at, playlist_id, playlist_song_order, current_song_index, found_point_fields, found_bonus_fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, updated_at=excluded.updated_at,
			playlist_id=excluded.playlist_id, playlist_song_order=excluded.playlist_song_order,
			current_song_index=excluded.current_song_index,
			found_point_fields=excluded.found_point_fields, found_bonus_fields=excluded.found_bonus_fields`,
		g.ID.String(), g.Name, g.CreatedAt, g.UpdatedAt, g.Playlist.ID.String(), order, currentIdx, foundPoints, foundBonus)
	if err != nil {
		return err
	}
	for _, t := range g.Teams.Ordered() {
		if err := saveTeamTx(ctx, tx, g.ID, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveTeamTx(ctx context.Context, tx *sql.Tx, gameID uuid.UUID, t *model.Team) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO teams (id, game_id, buzzer_id, name, score, color_hue, color_saturation, color_value, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET buzzer_id=excluded.buzzer_id, name=excluded.name, score=excluded.score,
			color_hue=excluded.color_hue, color_saturation=excluded.color_saturation, color_value=excluded.color_value,
			updated_at=excluded.updated_at`,
		t.ID.String(), gameID.String(), t.BuzzerID, t.Name, t.Score, t.Color.Hue, t.Color.Saturation, t.Color.Value, t.UpdatedAt)
	return err
}

func (s *Store) SaveTeam(ctx context.Context, gameID uuid.UUID, t *model.Team) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := saveTeamTx(ctx, tx, gameID, t); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeleteTeam(ctx context.Context, gameID, teamID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ? AND game_id = ?`, teamID.String(), gameID.String())
	return err
}

func (s *Store) FindGame(ctx context.Context, id uuid.UUID) (*model.GameSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, created_at, updated_at, playlist_id, playlist_song_order, current_song_index, found_point_fields, found_bonus_fields
		 FROM games WHERE id = ?`, id.String())

	var name, playlistIDStr string
	var createdAt, updatedAt any
	var orderBlob, foundPoints, foundBonus []byte
	var currentIdx sql.NullInt64
	if err := row.Scan(&name, &createdAt, &updatedAt, &playlistIDStr, &orderBlob, &currentIdx, &foundPoints, &foundBonus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	playlistID, err := uuid.Parse(playlistIDStr)
	if err != nil {
		return nil, err
	}
	playlist, err := s.FindPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	g := &model.GameSession{ID: id, Name: name, Playlist: playlist, Teams: model.NewTeamSet()}
	if err := json.Unmarshal(orderBlob, &g.PlaylistSongOrder); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(foundPoints, &g.FoundPointFields)
	_ = json.Unmarshal(foundBonus, &g.FoundBonusFields)
	if currentIdx.Valid {
		idx := int(currentIdx.Int64)
		g.CurrentSongIndex = &idx
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, buzzer_id, name, score, color_hue, color_saturation, color_value, updated_at FROM teams WHERE game_id = ?`,
		id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var idStr, buzzerID, teamName string
		var score int32
		var hue, sat, val float64
		var updated any
		if err := rows.Scan(&idStr, &buzzerID, &teamName, &score, &hue, &sat, &val, &updated); err != nil {
			return nil, err
		}
		teamID, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		g.Teams.Add(&model.Team{
			ID: teamID, BuzzerID: buzzerID, Name: teamName, Score: score,
			Color: model.TeamColor{Hue: hue, Saturation: sat, Value: val},
		})
	}
	return g, rows.Err()
}

func (s *Store) ListGames(ctx context.Context) ([]storage.GameListItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM games`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []storage.GameListItem
	for rows.Next() {
		var idStr, name string
		if err := rows.Scan(&idStr, &name); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		out = append(out, storage.GameListItem{ID: id, Name: name})
	}
	return out, rows.Err()
}

func (s *Store) DeleteGame(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	_, _ = s.db.ExecContext(ctx, `DELETE FROM teams WHERE game_id = ?`, id.String())
	return n > 0, nil
}
