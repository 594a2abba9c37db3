package sources

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLStore(db, nil)
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, s.Upsert(context.Background(), fixtureItems()...))
	return s
}

func TestSQLStoreSearchItems(t *testing.T) {
	s := newSQLiteStore(t)

	got, err := s.SearchItems(context.Background(), "καθαρ", FetchWindow)
	require.NoError(t, err)
	require.Equal(t, []string{"2", "1"}, ids(got))

	first := got[1]
	assert.Equal(t, "Καθαρισμός σπιτιού", first.Title)
	assert.Equal(t, "καθαρισμος σπιτιου", first.TitleNormalized)
	assert.Equal(t, []string{"Κηφισιά", "Μαρούσι"}, first.Provider.Coverage.Areas)
	assert.Equal(t, base, first.UpdatedAt)
}

func TestSQLStoreSearchByCoverage(t *testing.T) {
	s := newSQLiteStore(t)

	got, err := s.SearchItems(context.Background(), "θεσσαλ", FetchWindow)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestSQLStoreUpsertReplaces(t *testing.T) {
	s := newSQLiteStore(t)
	changed := fixtureItems()[1]
	changed.Status = "archived"
	require.NoError(t, s.Upsert(context.Background(), changed))

	got, err := s.SearchItems(context.Background(), "καθαρ", FetchWindow)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestSQLStoreUsedTaxonomy(t *testing.T) {
	s := newSQLiteStore(t)
	refs, err := s.UsedTaxonomy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cleaning", "music-lessons", "repairs"}, refs.Subcategories)
	assert.Equal(t, []string{"cleaning-home"}, refs.Subdivisions)
}

func TestSQLStoreWrapsFailures(t *testing.T) {
	s := newSQLiteStore(t)
	require.NoError(t, s.Close())

	_, err := s.SearchItems(context.Background(), "καθαρ", FetchWindow)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrStoreUnavailable)
}

func TestSearchQueryPerDriver(t *testing.T) {
	assert.Contains(t, searchQuery("sqlite"), "INSTR(title_normalized, ?)")
	assert.Contains(t, searchQuery("pgx"), "STRPOS(title_normalized, ?)")
}
