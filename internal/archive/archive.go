// Package archive keeps an append-only sqlite ledger of finished games:
// who won, how many days it took, and how each seat fared. It records
// outcomes only; live game state never touches disk and games are not
// resumable across restarts.
package archive

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"wolfden/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_result (
	game_id     TEXT NOT NULL UNIQUE,
	winner      TEXT NOT NULL,
	days        INTEGER NOT NULL,
	players     INTEGER NOT NULL,
	finished_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS game_result_player (
	result_id INTEGER NOT NULL REFERENCES game_result(rowid),
	name      TEXT NOT NULL,
	role      TEXT NOT NULL,
	survived  INTEGER NOT NULL
);
`

// Result is one finished game.
type Result struct {
	ID         int64     `db:"id"`
	GameID     string    `db:"game_id"`
	Winner     string    `db:"winner"`
	Days       int       `db:"days"`
	Players    int       `db:"players"`
	FinishedAt time.Time `db:"finished_at"`
}

// PlayerResult is one seat in a finished game.
type PlayerResult struct {
	ResultID int64  `db:"result_id"`
	Name     string `db:"name"`
	Role     string `db:"role"`
	Survived bool   `db:"survived"`
}

// Store wraps the sqlite ledger.
type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite database at path (":memory:" works) and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the outcome of a finished game. Recording an unfinished
// game is a caller bug and is rejected.
func (s *Store) Record(st engine.GameState, finishedAt time.Time) error {
	if st.Phase != engine.PhaseGameOver || st.Winner == "" {
		return fmt.Errorf("game %s is not finished", st.GameID)
	}

	res, err := s.db.Exec(`
		INSERT INTO game_result (game_id, winner, days, players, finished_at)
		VALUES (?, ?, ?, ?, ?)`,
		st.GameID, string(st.Winner), st.DayCount, len(st.Players), finishedAt)
	if err != nil {
		return fmt.Errorf("record game %s: %w", st.GameID, err)
	}
	resultID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, p := range st.Players {
		if _, err := s.db.Exec(`
			INSERT INTO game_result_player (result_id, name, role, survived)
			VALUES (?, ?, ?, ?)`,
			resultID, p.Name, string(p.Role), p.Alive); err != nil {
			return fmt.Errorf("record player %s: %w", p.Name, err)
		}
	}
	return nil
}

// Recent returns the most recently finished games, newest first.
func (s *Store) Recent(limit int) ([]Result, error) {
	var out []Result
	err := s.db.Select(&out, `
		SELECT rowid as id, game_id, winner, days, players, finished_at
		FROM game_result
		ORDER BY rowid DESC
		LIMIT ?`, limit)
	return out, err
}

// PlayersOf returns the seats recorded for a result.
func (s *Store) PlayersOf(resultID int64) ([]PlayerResult, error) {
	var out []PlayerResult
	err := s.db.Select(&out, `
		SELECT result_id, name, role, survived
		FROM game_result_player
		WHERE result_id = ?`, resultID)
	return out, err
}

// WinCounts returns how many recorded games each side has won.
func (s *Store) WinCounts() (map[string]int, error) {
	rows := []struct {
		Winner string `db:"winner"`
		Count  int    `db:"count"`
	}{}
	if err := s.db.Select(&rows, `
		SELECT winner, COUNT(*) as count
		FROM game_result
		GROUP BY winner`); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Winner] = r.Count
	}
	return out, nil
}
