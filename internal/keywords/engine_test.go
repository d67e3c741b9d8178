package keywords

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := DefaultConfig()
	cfg.Clock = func() time.Time { return fixedNow }
	return NewEngine(db.Storage, db.Storage, cfg), db
}

func TestLearnFromDescription_ConfidenceProgression(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	engine.LearnFromDescription(ctx, "Starbucks Coffee #1234", testutil.CategoryFoodDining)
	first := db.MustFindKeyword("starbucks", testutil.CategoryFoodDining)
	assert.Equal(t, 1, first.Occurrences)
	assert.InDelta(t, 0.5, first.Confidence, 1e-9)
	assert.Equal(t, model.KeywordSourceFeedback, first.Source)

	for n := 2; n <= 12; n++ {
		engine.LearnFromDescription(ctx, "Starbucks Coffee #1234", testutil.CategoryFoodDining)

		for _, keyword := range []string{"starbucks", "coffee", "1234"} {
			k := db.MustFindKeyword(keyword, testutil.CategoryFoodDining)
			assert.Equal(t, n, k.Occurrences, "keyword %s", keyword)
			want := 0.5 + float64(n)*0.05
			if want > 0.95 {
				want = 0.95
			}
			assert.InDelta(t, want, k.Confidence, 1e-9, "keyword %s after %d", keyword, n)
		}
	}

	last := db.MustFindKeyword("coffee", testutil.CategoryFoodDining)
	assert.True(t, fixedNow.Equal(last.LastSeen))
}

func TestLearnFromDescription_TracksCategoriesIndependently(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	engine.LearnFromDescription(ctx, "Amazon Fresh", testutil.CategoryGroceries)
	engine.LearnFromDescription(ctx, "Amazon Fresh", testutil.CategoryGroceries)
	engine.LearnFromDescription(ctx, "Amazon", "Shopping")

	assert.Equal(t, 2, db.MustFindKeyword("amazon", testutil.CategoryGroceries).Occurrences)
	assert.Equal(t, 1, db.MustFindKeyword("amazon", "Shopping").Occurrences)
}

func TestLearnFromDescription_NoKeywordsIsNoop(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	for _, description := range []string{"", "the and of", "ab cd", "payment transaction", "!!! ##"} {
		engine.LearnFromDescription(ctx, description, testutil.CategoryFoodDining)
	}

	total, err := db.Storage.CountKeywords(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLearnFromFeedback(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	db.SeedTransactions(
		model.Transaction{ID: "t1", Date: fixedNow, Amount: 23.5, Type: model.TypeExpense, Description: "SHELL OIL 5744"},
		model.Transaction{ID: "t2", Date: fixedNow, Amount: 9, Type: model.TypeExpense},
	)

	engine.LearnFromFeedback(ctx, "t1", testutil.CategoryTransportation)
	assert.Equal(t, 1, db.MustFindKeyword("shell", testutil.CategoryTransportation).Occurrences)
	assert.Equal(t, 1, db.MustFindKeyword("5744", testutil.CategoryTransportation).Occurrences)

	// Missing description and unknown transaction are skipped silently.
	engine.LearnFromFeedback(ctx, "t2", testutil.CategoryTransportation)
	engine.LearnFromFeedback(ctx, "missing", testutil.CategoryTransportation)

	total, err := db.Storage.CountKeywords(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestCategorizeByKeywords_Aggregation(t *testing.T) {
	engine, db := newTestEngine(t)

	db.SeedKeyword(&model.LearnedKeyword{Keyword: "grill", Category: "Food", Occurrences: 10, Confidence: 0.9, Source: model.KeywordSourceFeedback})
	db.SeedKeyword(&model.LearnedKeyword{Keyword: "metro", Category: "Transport", Occurrences: 1, Confidence: 0.95, Source: model.KeywordSourceManual})

	suggestion, err := engine.CategorizeByKeywords(context.Background(), "Metro Grill downtown")
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, "Food", suggestion.Category)
	assert.InDelta(t, 0.9, suggestion.Confidence, 1e-9)
}

func TestCategorizeByKeywords_ManyWeakBeatOneStrong(t *testing.T) {
	engine, db := newTestEngine(t)

	db.SeedKeyword(&model.LearnedKeyword{Keyword: "whole", Category: "Groceries", Occurrences: 2, Confidence: 0.6, Source: model.KeywordSourceFeedback})
	db.SeedKeyword(&model.LearnedKeyword{Keyword: "foods", Category: "Groceries", Occurrences: 2, Confidence: 0.6, Source: model.KeywordSourceFeedback})
	db.SeedKeyword(&model.LearnedKeyword{Keyword: "market", Category: "Groceries", Occurrences: 2, Confidence: 0.6, Source: model.KeywordSourceFeedback})
	db.SeedKeyword(&model.LearnedKeyword{Keyword: "foods", Category: "Restaurants", Occurrences: 3, Confidence: 0.9, Source: model.KeywordSourceFeedback})

	suggestion, err := engine.CategorizeByKeywords(context.Background(), "WHOLE FOODS MARKET")
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, "Groceries", suggestion.Category, "3.6 beats 2.7")
	assert.InDelta(t, 0.6, suggestion.Confidence, 1e-9)
}

func TestCategorizeByKeywords_TieGoesToFirstInStoreOrder(t *testing.T) {
	engine, db := newTestEngine(t)

	// Equal scores of 2.0; "Beta" has the higher occurrence row so it is seen first.
	db.SeedKeyword(&model.LearnedKeyword{Keyword: "alpha", Category: "Alpha", Occurrences: 2, Confidence: 1.0, Source: model.KeywordSourceManual})
	db.SeedKeyword(&model.LearnedKeyword{Keyword: "beta", Category: "Beta", Occurrences: 4, Confidence: 0.5, Source: model.KeywordSourceManual})

	suggestion, err := engine.CategorizeByKeywords(context.Background(), "alpha beta")
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, "Beta", suggestion.Category)
}

func TestCategorizeByKeywords_NoSignal(t *testing.T) {
	engine, db := newTestEngine(t)
	db.SeedKeyword(&model.LearnedKeyword{Keyword: "netflix", Category: "Entertainment", Occurrences: 1, Confidence: 0.5, Source: model.KeywordSourceFeedback})

	ctx := context.Background()
	for _, description := range []string{"", "the of", "hulu plus"} {
		suggestion, err := engine.CategorizeByKeywords(ctx, description)
		require.NoError(t, err)
		assert.Nil(t, suggestion, "description %q", description)
	}
}

func TestCategorizeByKeywords_LearnedEndToEnd(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		engine.LearnFromDescription(ctx, "Chevron fuel station", testutil.CategoryTransportation)
	}
	engine.LearnFromDescription(ctx, "Chevron mini mart snacks", testutil.CategoryFoodDining)

	suggestion, err := engine.CategorizeByKeywords(ctx, "CHEVRON 0042")
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, testutil.CategoryTransportation, suggestion.Category)
	assert.InDelta(t, 0.65, suggestion.Confidence, 1e-9)
}

func TestAddKeyword(t *testing.T) {
	engine, db := newTestEngine(t)
	ctx := context.Background()

	k, err := engine.AddKeyword(ctx, "  NETFLIX ", testutil.CategoryEntertainment, 0)
	require.NoError(t, err)
	assert.Equal(t, "netflix", k.Keyword)
	assert.Equal(t, 0.9, k.Confidence)
	assert.Equal(t, 1, k.Occurrences)
	assert.Equal(t, model.KeywordSourceManual, k.Source)
	assert.NotEmpty(t, k.ID)

	stored := db.MustFindKeyword("netflix", testutil.CategoryEntertainment)
	assert.Equal(t, k.ID, stored.ID)

	custom, err := engine.AddKeyword(ctx, "spotify", testutil.CategoryEntertainment, 0.7)
	require.NoError(t, err)
	assert.Equal(t, 0.7, custom.Confidence)

	_, err = engine.AddKeyword(ctx, "netflix", testutil.CategoryEntertainment, 0)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = engine.AddKeyword(ctx, " ", testutil.CategoryEntertainment, 0)
	assert.ErrorIs(t, err, ErrEmptyKeyword)
}

func TestDeleteKeyword(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	k, err := engine.AddKeyword(ctx, "hulu", testutil.CategoryEntertainment, 0)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteKeyword(ctx, k.ID))
	assert.ErrorIs(t, engine.DeleteKeyword(ctx, k.ID), common.ErrNotFound)

	keywords, err := engine.GetKeywordsForCategory(ctx, testutil.CategoryEntertainment)
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestGetKeywordStats(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	empty, err := engine.GetKeywordStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.ByCategory)

	_, err = engine.AddKeyword(ctx, "netflix", testutil.CategoryEntertainment, 0)
	require.NoError(t, err)
	_, err = engine.AddKeyword(ctx, "cinema", testutil.CategoryEntertainment, 0.8)
	require.NoError(t, err)
	engine.LearnFromDescription(ctx, "Kroger", testutil.CategoryGroceries)

	stats, err := engine.GetKeywordStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.HighConfidence)
	require.Len(t, stats.ByCategory, 2)

	assert.Equal(t, testutil.CategoryEntertainment, stats.ByCategory[0].Category)
	assert.Equal(t, 2, stats.ByCategory[0].Count)
	assert.InDelta(t, 0.85, stats.ByCategory[0].AvgConfidence, 1e-9)
	assert.InDelta(t, 1, stats.ByCategory[0].AvgOccurrences, 1e-9)

	keywords, err := engine.GetKeywordsForCategory(ctx, testutil.CategoryEntertainment)
	require.NoError(t, err)
	require.Len(t, keywords, 2)
	assert.Equal(t, "netflix", keywords[0].Keyword, "higher confidence first")
}
