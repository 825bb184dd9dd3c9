package orchestrator

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SubmitClearsPreviousQuery(t *testing.T) {
	s := InitialState()
	s.Query = "old"
	s.Result = &models.SearchResult{Answer: "old answer"}
	s.GeneratedImage = &models.GeneratedImage{Data: []byte{1}}
	s.Generating = true
	s.ScrollToResults = true

	next, ok := s.Submit(" new ", models.ThemeNebula)
	require.True(t, ok)

	assert.Equal(t, "new", next.Query)
	assert.True(t, next.Searching)
	assert.Equal(t, models.ThemeNebula, next.Theme)
	assert.Nil(t, next.Result)
	assert.Nil(t, next.GeneratedImage)
	assert.False(t, next.Generating)
	assert.False(t, next.ScrollToResults)
	assert.Equal(t, PhaseSearching, next.Phase())

	// the receiver is a value and stays untouched
	assert.Equal(t, "old", s.Query)
}

func TestState_SubmitBlank(t *testing.T) {
	s := InitialState()
	next, ok := s.Submit("  ", models.ThemeMars)
	assert.False(t, ok)
	assert.Equal(t, s, next)
}

func TestState_ResolveSearchKeepsTrendingWithoutTopics(t *testing.T) {
	s, _ := InitialState().Submit("q", models.ThemeMars)
	next := s.ResolveSearch(models.SearchResult{Answer: "a"}, nil)

	assert.Equal(t, SeedTopics(), next.Trending)
	assert.Equal(t, PhaseResultsReady, next.Phase())
	assert.True(t, next.ScrollToResults)
}

func TestState_ImageTransitions(t *testing.T) {
	_, ok := InitialState().BeginImage()
	assert.False(t, ok)

	s, _ := InitialState().Submit("q", models.ThemeMars)
	_, ok = s.BeginImage()
	assert.False(t, ok, "search still in flight")

	s = s.ResolveSearch(models.SearchResult{Answer: "a"}, nil)

	generating, ok := s.BeginImage()
	require.True(t, ok)
	assert.Equal(t, PhaseImageGenerating, generating.Phase())

	_, ok = generating.BeginImage()
	assert.False(t, ok)

	done := generating.ResolveImage(nil)
	assert.False(t, done.Generating)
	assert.Nil(t, done.GeneratedImage)
	assert.Equal(t, PhaseResultsReady, done.Phase())
}

func TestState_CloneIsIndependent(t *testing.T) {
	s, _ := InitialState().Submit("q", models.ThemeMars)
	s = s.ResolveSearch(models.SearchResult{
		Answer:  "a",
		Sources: []models.Source{{URI: "u", Title: "t"}},
	}, DerivePlaceholders("https://cdn", "q", 2))

	c := s.Clone()
	c.Result.Sources[0].Title = "changed"
	c.Trending[0].Label = "changed"
	c.Placeholders[0].Src = "changed"

	assert.Equal(t, "t", s.Result.Sources[0].Title)
	assert.NotEqual(t, "changed", s.Trending[0].Label)
	assert.NotEqual(t, "changed", s.Placeholders[0].Src)
}

func TestDerivePlaceholders_Deterministic(t *testing.T) {
	first := DerivePlaceholders("https://picsum.photos/400/300", "Mars Colonization", PlaceholderCount)
	second := DerivePlaceholders("https://picsum.photos/400/300", "Mars Colonization", PlaceholderCount)

	assert.Equal(t, first, second)
	require.Len(t, first, 4)

	seed := QuerySeed("Mars Colonization")
	for i, img := range first {
		assert.Equal(t, i, img.ID)
		assert.Equal(t, "https://picsum.photos/400/300?random="+strconv.Itoa(seed+i), img.Src)
	}
	assert.Equal(t, "Mars Colonization related image 1", first[0].Alt)
	assert.Equal(t, "Mars Colonization related image 4", first[3].Alt)
}

func TestQuerySeed(t *testing.T) {
	assert.Equal(t, 0, QuerySeed(""))
	assert.Equal(t, int('a'+'b'), QuerySeed("ab"))
	// U+1F680 is a surrogate pair in UTF-16: 0xD83D + 0xDE80
	assert.Equal(t, 0xD83D+0xDE80, QuerySeed("🚀"))
}

func TestChooseTheme(t *testing.T) {
	assert.Equal(t, models.ThemeDeepSpace, ChooseTheme(fixedEntropy(0)))
	assert.Equal(t, models.ThemeNebula, ChooseTheme(fixedEntropy(4)))

	r := rand.New(rand.NewPCG(1, 2))
	seen := map[models.SpaceTheme]bool{}
	for i := 0; i < 200; i++ {
		seen[ChooseTheme(r)] = true
	}
	assert.Len(t, seen, len(models.AllThemes()))
}

func TestTopicsFromRelated(t *testing.T) {
	topics := TopicsFromRelated([]string{"a", "b"})
	assert.Equal(t, []models.Topic{
		{ID: "rel-0", Label: "a", Trend: models.TrendNeutral},
		{ID: "rel-1", Label: "b", Trend: models.TrendNeutral},
	}, topics)
}

func TestSeedTopics_UniqueIDs(t *testing.T) {
	ids := map[string]bool{}
	for _, topic := range SeedTopics() {
		assert.False(t, ids[topic.ID])
		ids[topic.ID] = true
	}
	assert.Len(t, ids, 6)
}
