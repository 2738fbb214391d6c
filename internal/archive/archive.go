// Package archive stores historical league tables per season and division.
// League-table questions are simple keyed reads against this store rather
// than graph traversals.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates no archived standings matched the lookup.
var ErrNotFound = errors.New("standings not found")

// Standing is one row of an archived league table.
type Standing struct {
	Season       string
	Division     string
	Position     int
	Team         string
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

const schema = `
CREATE TABLE IF NOT EXISTS standings (
	season        TEXT NOT NULL,
	division      TEXT NOT NULL,
	position      INTEGER NOT NULL,
	team          TEXT NOT NULL,
	played        INTEGER NOT NULL DEFAULT 0,
	won           INTEGER NOT NULL DEFAULT 0,
	drawn         INTEGER NOT NULL DEFAULT 0,
	lost          INTEGER NOT NULL DEFAULT 0,
	goals_for     INTEGER NOT NULL DEFAULT 0,
	goals_against INTEGER NOT NULL DEFAULT 0,
	points        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (season, division, position)
);
CREATE INDEX IF NOT EXISTS idx_standings_team ON standings (team, season);
`

// Store is the SQLite-backed season archive.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds or replaces one standings row.
func (s *Store) Insert(ctx context.Context, st Standing) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO standings
		(season, division, position, team, played, won, drawn, lost, goals_for, goals_against, points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Season, st.Division, st.Position, st.Team,
		st.Played, st.Won, st.Drawn, st.Lost, st.GoalsFor, st.GoalsAgainst, st.Points,
	)
	return err
}

// Table returns the full table for a season, ordered by position. When the
// season spans multiple divisions the caller filters by team instead.
func (s *Store) Table(ctx context.Context, season string) ([]Standing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT season, division, position, team, played, won, drawn, lost, goals_for, goals_against, points
		FROM standings WHERE season = ? ORDER BY division, position`, season)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Season, &st.Division, &st.Position, &st.Team,
			&st.Played, &st.Won, &st.Drawn, &st.Lost, &st.GoalsFor, &st.GoalsAgainst, &st.Points); err != nil {
			return nil, fmt.Errorf("scan standings: %w", err)
		}
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(standings) == 0 {
		return nil, ErrNotFound
	}
	return standings, nil
}

// Winner returns the team that finished first in a season's division.
func (s *Store) Winner(ctx context.Context, season string) (*Standing, error) {
	return s.one(ctx, `
		SELECT season, division, position, team, played, won, drawn, lost, goals_for, goals_against, points
		FROM standings WHERE season = ? AND position = 1 ORDER BY division LIMIT 1`, season)
}

// Position returns a team's standings row for a season.
func (s *Store) Position(ctx context.Context, season, team string) (*Standing, error) {
	return s.one(ctx, `
		SELECT season, division, position, team, played, won, drawn, lost, goals_for, goals_against, points
		FROM standings WHERE season = ? AND team = ? LIMIT 1`, season, team)
}

func (s *Store) one(ctx context.Context, query string, args ...any) (*Standing, error) {
	var st Standing
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&st.Season, &st.Division, &st.Position, &st.Team,
		&st.Played, &st.Won, &st.Drawn, &st.Lost, &st.GoalsFor, &st.GoalsAgainst, &st.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	return &st, nil
}
