package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedKeyword(t *testing.T, store *SQLiteStorage, keyword, category string, occurrences int, confidence float64) *model.LearnedKeyword {
	t.Helper()
	k := &model.LearnedKeyword{
		Keyword:     keyword,
		Category:    category,
		Occurrences: occurrences,
		Confidence:  confidence,
		Source:      model.KeywordSourceFeedback,
	}
	require.NoError(t, store.CreateKeyword(context.Background(), k))
	return k
}

func TestSQLiteStorage_KeywordCreateAndFind(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	created := seedKeyword(t, store, "starbucks", "Food & Dining", 1, 0.5)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.LastSeen.IsZero())

	got, err := store.FindKeyword(ctx, "starbucks", "Food & Dining")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, got.Occurrences)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, model.KeywordSourceFeedback, got.Source)

	_, err = store.FindKeyword(ctx, "starbucks", "Shopping")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_CreateKeyword_Duplicate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	seedKeyword(t, store, "uber", "Transportation", 1, 0.5)

	err := store.CreateKeyword(context.Background(), &model.LearnedKeyword{
		Keyword: "uber", Category: "Transportation", Occurrences: 1, Confidence: 0.5, Source: model.KeywordSourceManual,
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Same keyword, different category is an ambiguous keyword and is allowed.
	seedKeyword(t, store, "uber", "Food & Dining", 1, 0.5)
}

func TestSQLiteStorage_CreateKeyword_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		keyword *model.LearnedKeyword
		name    string
	}{
		{name: "empty keyword", keyword: &model.LearnedKeyword{Category: "A", Occurrences: 1, Confidence: 0.5, Source: model.KeywordSourceManual}},
		{name: "empty category", keyword: &model.LearnedKeyword{Keyword: "a", Occurrences: 1, Confidence: 0.5, Source: model.KeywordSourceManual}},
		{name: "confidence too high", keyword: &model.LearnedKeyword{Keyword: "a", Category: "A", Occurrences: 1, Confidence: 1.5, Source: model.KeywordSourceManual}},
		{name: "zero occurrences", keyword: &model.LearnedKeyword{Keyword: "a", Category: "A", Confidence: 0.5, Source: model.KeywordSourceManual}},
		{name: "unknown source", keyword: &model.LearnedKeyword{Keyword: "a", Category: "A", Occurrences: 1, Confidence: 0.5, Source: "import"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.CreateKeyword(ctx, tt.keyword), ErrInvalidKeyword)
		})
	}
}

func TestSQLiteStorage_FindKeywordsIn_Ordering(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedKeyword(t, store, "coffee", "Food & Dining", 3, 0.65)
	seedKeyword(t, store, "shell", "Transportation", 10, 0.95)
	seedKeyword(t, store, "coffee", "Shopping", 3, 0.7)
	seedKeyword(t, store, "netflix", "Entertainment", 20, 0.95)

	got, err := store.FindKeywordsIn(ctx, []string{"coffee", "shell", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "shell", got[0].Keyword)
	assert.Equal(t, "Shopping", got[1].Category, "equal occurrences fall back to confidence")
	assert.Equal(t, "Food & Dining", got[2].Category)

	none, err := store.FindKeywordsIn(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStorage_UpdateKeyword(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	k := seedKeyword(t, store, "lyft", "Transportation", 1, 0.5)
	seen := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpdateKeyword(ctx, k.ID, 2, 0.6, seen))

	got, err := store.FindKeyword(ctx, "lyft", "Transportation")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Occurrences)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
	assert.True(t, seen.Equal(got.LastSeen))

	assert.ErrorIs(t, store.UpdateKeyword(ctx, "missing", 2, 0.6, seen), common.ErrNotFound)
	assert.ErrorIs(t, store.UpdateKeyword(ctx, k.ID, 2, 2, seen), ErrInvalidKeyword)
}

func TestSQLiteStorage_DeleteKeyword(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	k := seedKeyword(t, store, "amazon", "Shopping", 1, 0.5)
	require.NoError(t, store.DeleteKeyword(ctx, k.ID))

	_, err := store.FindKeyword(ctx, "amazon", "Shopping")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteKeyword(ctx, k.ID), common.ErrNotFound)
}

func TestSQLiteStorage_KeywordStats(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedKeyword(t, store, "shell", "Transportation", 4, 0.7)
	seedKeyword(t, store, "chevron", "Transportation", 8, 0.9)
	seedKeyword(t, store, "kroger", "Food & Dining", 1, 0.5)

	total, err := store.CountKeywords(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	high, err := store.CountKeywords(ctx, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1, high)

	stats, err := store.GetKeywordCategoryStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Food & Dining", stats[0].Category)
	assert.Equal(t, 1, stats[0].Count)

	assert.Equal(t, "Transportation", stats[1].Category)
	assert.Equal(t, 2, stats[1].Count)
	assert.InDelta(t, 0.8, stats[1].AvgConfidence, 1e-9)
	assert.InDelta(t, 6.0, stats[1].AvgOccurrences, 1e-9)

	byCategory, err := store.GetKeywordsByCategory(ctx, "Transportation")
	require.NoError(t, err)
	require.Len(t, byCategory, 2)
	assert.Equal(t, "chevron", byCategory[0].Keyword)
}
