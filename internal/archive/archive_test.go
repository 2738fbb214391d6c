package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedSeason(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	rows := []Standing{
		{Season: "2022/23", Division: "Division Three", Position: 1, Team: "Oakfield 2nd XI", Played: 22, Won: 16, Drawn: 4, Lost: 2, GoalsFor: 58, GoalsAgainst: 21, Points: 52},
		{Season: "2022/23", Division: "Division Three", Position: 2, Team: "Rockford", Played: 22, Won: 15, Drawn: 3, Lost: 4, GoalsFor: 49, GoalsAgainst: 25, Points: 48},
		{Season: "2022/23", Division: "Division Three", Position: 3, Team: "Harlow Wanderers", Played: 22, Won: 11, Drawn: 5, Lost: 6, GoalsFor: 40, GoalsAgainst: 33, Points: 38},
	}
	for _, st := range rows {
		require.NoError(t, store.Insert(ctx, st))
	}
}

func TestStore_TableOrderedByPosition(t *testing.T) {
	store := openTestStore(t)
	seedSeason(t, store)

	// Insert out of order; reads must still come back position-sorted.
	require.NoError(t, store.Insert(context.Background(), Standing{
		Season: "2021/22", Division: "Division Four", Position: 4, Team: "Beckton Albion", Points: 30,
	}))
	require.NoError(t, store.Insert(context.Background(), Standing{
		Season: "2021/22", Division: "Division Four", Position: 1, Team: "Oakfield 3rd XI", Points: 55,
	}))

	table, err := store.Table(context.Background(), "2021/22")
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, 1, table[0].Position)
	assert.Equal(t, "Oakfield 3rd XI", table[0].Team)
	assert.Equal(t, 4, table[1].Position)
}

func TestStore_TableUnknownSeason(t *testing.T) {
	store := openTestStore(t)
	seedSeason(t, store)

	_, err := store.Table(context.Background(), "1999/00")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Winner(t *testing.T) {
	store := openTestStore(t)
	seedSeason(t, store)

	winner, err := store.Winner(context.Background(), "2022/23")
	require.NoError(t, err)
	assert.Equal(t, "Oakfield 2nd XI", winner.Team)
	assert.Equal(t, "Division Three", winner.Division)
	assert.Equal(t, 52, winner.Points)
}

func TestStore_Position(t *testing.T) {
	store := openTestStore(t)
	seedSeason(t, store)

	st, err := store.Position(context.Background(), "2022/23", "Rockford")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Position)
	assert.Equal(t, 48, st.Points)

	_, err = store.Position(context.Background(), "2022/23", "Nonexistent FC")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_InsertReplacesExistingRow(t *testing.T) {
	store := openTestStore(t)
	seedSeason(t, store)

	// Re-inserting the same (season, division, position) overwrites.
	require.NoError(t, store.Insert(context.Background(), Standing{
		Season: "2022/23", Division: "Division Three", Position: 1, Team: "Oakfield 2nd XI", Points: 53,
	}))

	winner, err := store.Winner(context.Background(), "2022/23")
	require.NoError(t, err)
	assert.Equal(t, 53, winner.Points)
}
