package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchforge/suggestions/internal/cache"
	"github.com/searchforge/suggestions/internal/contract"
	"github.com/searchforge/suggestions/sources"
	"github.com/searchforge/suggestions/taxonomy"
	"github.com/searchforge/suggestions/testutil"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func homeCleaning() sources.Item {
	return sources.Item{
		ID: "1", Title: "Καθαρισμός σπιτιού", Slug: "katharismos-spitiou",
		Description: "Γενικός καθαρισμός κατοικιών",
		Category:    "home-services", Subcategory: "cleaning", Subdivision: "cleaning-home",
		Status: sources.StatusPublished, Rating: 4.5, UpdatedAt: now,
		Provider: sources.Provider{Coverage: sources.Coverage{
			Areas:    []string{"Κηφισιά", "Νέα Κηφισιά"},
			Counties: []string{"Αττική"},
		}},
	}
}

func plumbing() sources.Item {
	return sources.Item{
		ID: "2", Title: "Υδραυλικός", Slug: "ydravlikos",
		Description: "Αποφράξεις και επισκευές",
		Category:    "home-services", Subcategory: "repairs", Subdivision: "repairs-plumbing",
		Status: sources.StatusPublished, Rating: 4.9, UpdatedAt: now,
		Provider: sources.Provider{Coverage: sources.Coverage{Counties: []string{"Θεσσαλονίκη"}}},
	}
}

func newController(t *testing.T, store sources.ItemStore, c *cache.Cache) *Controller {
	t.Helper()
	ds, err := taxonomy.Default()
	require.NoError(t, err)
	ctrl, err := New(Config{Index: taxonomy.NewIndex(ds), Store: store, Cache: c})
	require.NoError(t, err)
	return ctrl
}

func productionCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := cache.NewLRUStore(64)
	require.NoError(t, err)
	return cache.New(store, cache.Policy{Env: cache.EnvProduction}, nil)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestShortQueriesSkipTheStore(t *testing.T) {
	store := testutil.NewFakeStore(homeCleaning())
	ctrl := newController(t, store, nil)

	for _, q := range []string{"", " ", "κ", "  α  "} {
		resp := ctrl.SearchSuggestions(context.Background(), q)
		require.True(t, resp.Success, q)
		require.NotNil(t, resp.Data, q)
		assert.Empty(t, resp.Data.Taxonomies, q)
		assert.Empty(t, resp.Data.Services, q)
		assert.False(t, resp.Data.HasResults, q)
	}
	assert.Zero(t, store.Calls(""))
}

func TestTermTrimsAndNormalizes(t *testing.T) {
	term, ok := Term("  ΚΑΘΑΡΙΌΤΗΤΑ ")
	assert.True(t, ok)
	assert.Equal(t, "καθαριοτητα", term)

	_, ok = Term(" ά ")
	assert.False(t, ok)
}

func TestSuggestSubcategoryAndTitle(t *testing.T) {
	ctrl := newController(t, testutil.NewFakeStore(homeCleaning(), plumbing()), nil)

	resp := ctrl.SearchSuggestions(context.Background(), "καθ")
	require.True(t, resp.Success)
	got := resp.Data

	assert.True(t, got.HasResults)
	assert.Equal(t, []contract.TaxonomySuggestion{{
		Type:        contract.TypeTaxonomy,
		ID:          "cleaning",
		Label:       "Καθαριότητα",
		Category:    "Υπηρεσίες Σπιτιού",
		Subcategory: "Καθαριότητα",
		URL:         "/ipiresies/kathariotita",
	}}, got.Taxonomies)
	assert.Equal(t, []contract.ServicePreview{{
		Type:      contract.TypeService,
		ID:        "1",
		Title:     "Καθαρισμός σπιτιού",
		Category:  "Υπηρεσίες Σπιτιού",
		Slug:      "katharismos-spitiou",
		URL:       "/s/katharismos-spitiou",
		MatchType: contract.MatchTitle,
	}}, got.Services)
}

func TestSuggestUsedSubdivision(t *testing.T) {
	ctrl := newController(t, testutil.NewFakeStore(homeCleaning()), nil)

	got := ctrl.SearchSuggestions(context.Background(), "σπιτ").Data
	require.NotNil(t, got)
	require.Len(t, got.Taxonomies, 1)
	assert.Equal(t, "cleaning-home", got.Taxonomies[0].ID)
	assert.Equal(t, "Σπίτι", got.Taxonomies[0].Subdivision)
	assert.Equal(t, "/ipiresies/kathariotita/spiti", got.Taxonomies[0].URL)

	// Γυάλισμα exists in the taxonomy but no published item uses it.
	got = ctrl.SearchSuggestions(context.Background(), "γυαλ").Data
	require.NotNil(t, got)
	assert.Empty(t, got.Taxonomies)
	assert.False(t, got.HasResults)
}

func TestSuggestCoverageMatch(t *testing.T) {
	ctrl := newController(t, testutil.NewFakeStore(homeCleaning(), plumbing()), nil)

	got := ctrl.SearchSuggestions(context.Background(), "κηφισ").Data
	require.NotNil(t, got)
	require.Len(t, got.Services, 1)
	assert.Equal(t, contract.MatchCoverage, got.Services[0].MatchType)
	assert.Equal(t, "Νέα Κηφισιά", got.Services[0].Location)

	got = ctrl.SearchSuggestions(context.Background(), "θεσσαλονικη").Data
	require.NotNil(t, got)
	require.Len(t, got.Services, 1)
	assert.Equal(t, "Θεσσαλονίκη", got.Services[0].Location)
}

func TestSuggestDescriptionMatch(t *testing.T) {
	ctrl := newController(t, testutil.NewFakeStore(plumbing()), nil)

	got := ctrl.SearchSuggestions(context.Background(), "αποφραξ").Data
	require.NotNil(t, got)
	require.Len(t, got.Services, 1)
	assert.Equal(t, contract.MatchDescription, got.Services[0].MatchType)
	assert.Empty(t, got.Services[0].Location)
}

const wideTaxonomy = `
categories:
  - id: home
    label: Σπίτι
    children:
      - id: sub-1
        label: Καθαριότητα κατοικιών
        slug: sub-1
        children:
          - {id: div-1, label: Καθαρισμός χαλιών, slug: div-1}
          - {id: div-2, label: Καθαρισμός τζαμιών, slug: div-2}
      - id: sub-2
        label: Καθαριότητα γραφείων
        slug: sub-2
        children:
          - {id: div-3, label: Καθαρισμός κοινοχρήστων, slug: div-3}
          - {id: div-4, label: Καθαρισμός μετά από ανακαίνιση, slug: div-4}
      - id: sub-3
        label: Καθαριότητα σκαφών
        slug: sub-3
`

func TestSuggestTruncatesBothLists(t *testing.T) {
	ds, err := taxonomy.Load(strings.NewReader(wideTaxonomy))
	require.NoError(t, err)

	store := testutil.NewFakeStore()
	subs := []string{"sub-1", "sub-1", "sub-2", "sub-2", "sub-3", "sub-3", "sub-1", "sub-2"}
	divs := []string{"div-1", "div-2", "div-3", "div-4", "", "", "", ""}
	for i := range subs {
		it := homeCleaning()
		it.ID = fmt.Sprintf("item-%d", i)
		it.Slug = it.ID
		it.Category = "home"
		it.Subcategory = subs[i]
		it.Subdivision = divs[i]
		store.Add(it)
	}
	ctrl, err := New(Config{Index: taxonomy.NewIndex(ds), Store: store})
	require.NoError(t, err)

	// Seven used nodes match: three subcategories and four subdivisions.
	got := ctrl.SearchSuggestions(context.Background(), "καθαρ").Data
	require.NotNil(t, got)
	require.Len(t, got.Taxonomies, 5)
	assert.Len(t, got.Services, 5)

	for i, s := range got.Taxonomies[:4] {
		assert.NotEmpty(t, s.Subdivision, "subdivision expected at %d", i)
	}
	assert.Empty(t, got.Taxonomies[4].Subdivision)
}

func TestSuggestRanksTitlePrefixFirst(t *testing.T) {
	helper := homeCleaning()
	helper.ID, helper.Title, helper.Slug, helper.Rating = "b", "Βοηθός καθαριστής", "voithos", 5
	general := homeCleaning()
	general.ID, general.Title, general.Slug, general.Rating = "a", "Γενικές εργασίες", "genikes", 4
	general.Description = "καθαρισμός και τακτοποίηση"
	prefix := homeCleaning()
	prefix.ID, prefix.Slug, prefix.Rating = "c", "katharismos", 3

	ctrl := newController(t, testutil.NewFakeStore(helper, general, prefix), nil)
	got := ctrl.SearchSuggestions(context.Background(), "καθ").Data
	require.NotNil(t, got)

	var order []string
	for _, s := range got.Services {
		order = append(order, s.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestStoreFailureIsReportedNotThrown(t *testing.T) {
	store := testutil.NewFakeStore(homeCleaning())
	store.SetResponses(testutil.FakeResponse{Err: fmt.Errorf("%w: connection refused", sources.ErrStoreUnavailable)})
	ctrl := newController(t, store, nil)

	resp := ctrl.SearchSuggestions(context.Background(), "καθ")
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, "search failed", resp.Error)

	_, err := ctrl.Suggest(context.Background(), "καθ")
	assert.True(t, errors.Is(err, sources.ErrStoreUnavailable))
}

func TestSuggestCachesAndInvalidates(t *testing.T) {
	store := testutil.NewFakeStore(homeCleaning())
	ctrl := newController(t, store, productionCache(t))
	ctx := context.Background()

	first, err := ctrl.Suggest(ctx, "καθ")
	require.NoError(t, err)
	second, err := ctrl.Suggest(ctx, "  ΚΑΘ ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Calls("search_items"))
	assert.Equal(t, 1, store.Calls("used_taxonomy"))

	require.NoError(t, ctrl.Invalidate(ctx, cache.SearchTag("καθ")))
	_, err = ctrl.Suggest(ctx, "καθ")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Calls("search_items"))
	// Usage lives under its own key and tags.
	assert.Equal(t, 1, store.Calls("used_taxonomy"))

	require.NoError(t, ctrl.Invalidate(ctx, cache.TagItems))
	_, err = ctrl.Suggest(ctx, "καθ")
	require.NoError(t, err)
	assert.Equal(t, 3, store.Calls("search_items"))
	assert.Equal(t, 2, store.Calls("used_taxonomy"))
}

func TestFailuresAreNotCached(t *testing.T) {
	store := testutil.NewFakeStore(homeCleaning())
	store.SetResponses(testutil.FakeResponse{Err: errors.New("boom")}, testutil.FakeResponse{Err: errors.New("boom")}, testutil.FakeResponse{})
	ctrl := newController(t, store, productionCache(t))

	assert.False(t, ctrl.SearchSuggestions(context.Background(), "καθ").Success)
	resp := ctrl.SearchSuggestions(context.Background(), "καθ")
	require.True(t, resp.Success)
	assert.True(t, resp.Data.HasResults)
}

func TestWarm(t *testing.T) {
	store := testutil.NewFakeStore(homeCleaning())
	ctrl := newController(t, store, productionCache(t))

	warmed, err := ctrl.Warm(context.Background(), []string{"καθ", "σπιτ", "x"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, warmed)
	assert.Equal(t, 2, store.Calls("search_items"))

	_, err = ctrl.Suggest(context.Background(), "σπιτ")
	require.NoError(t, err)
	assert.Equal(t, 2, store.Calls("search_items"))
}

func TestPing(t *testing.T) {
	store := testutil.NewFakeStore()
	ctrl := newController(t, store, nil)
	assert.NoError(t, ctrl.Ping(context.Background()))

	store.SetResponses(testutil.FakeResponse{Delay: time.Second})
	assert.ErrorIs(t, ctrl.Ping(context.Background()), sources.ErrStoreUnavailable)
}

func TestExtractLocation(t *testing.T) {
	cov := sources.Coverage{
		Areas:    []string{"Χαλάνδρι"},
		Counties: []string{"Αττική", "Ανατολική Αττική"},
	}
	assert.Equal(t, "Ανατολική Αττική", extractLocation("αττικ", cov))
	assert.Equal(t, "Χαλάνδρι", extractLocation("χαλανδρι", cov))
	assert.Empty(t, extractLocation("πατρα", cov))
}
