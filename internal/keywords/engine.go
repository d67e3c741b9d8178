// Package keywords learns which description words indicate which category
// from user corrections, and suggests categories for new transactions.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
)

const (
	initialConfidence       = 0.5
	confidenceStep          = 0.05
	maxLearnedConfidence    = 0.95
	defaultManualConfidence = 0.9
	highConfidenceThreshold = 0.8
)

// ErrEmptyKeyword is returned when a manual keyword or its category is blank.
var ErrEmptyKeyword = errors.New("keyword and category are required")

// KeywordStore persists learned keyword associations.
type KeywordStore interface {
	FindKeyword(ctx context.Context, keyword, category string) (*model.LearnedKeyword, error)
	FindKeywordsIn(ctx context.Context, keywords []string) ([]model.LearnedKeyword, error)
	CreateKeyword(ctx context.Context, keyword *model.LearnedKeyword) error
	UpdateKeyword(ctx context.Context, id string, occurrences int, confidence float64, lastSeen time.Time) error
	DeleteKeyword(ctx context.Context, id string) error
	GetKeywordsByCategory(ctx context.Context, category string) ([]model.LearnedKeyword, error)
	CountKeywords(ctx context.Context, minConfidence float64) (int, error)
	GetKeywordCategoryStats(ctx context.Context) ([]model.CategoryKeywordStats, error)
}

// TransactionLookup loads a single transaction.
type TransactionLookup interface {
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
}

// Config holds the engine's immutable settings.
type Config struct {
	Clock            func() time.Time
	Logger           *slog.Logger
	StopWords        []string
	MinKeywordLength int
}

// DefaultConfig returns the built-in stop-word list and a three character minimum.
func DefaultConfig() Config {
	stopWords := make([]string, len(defaultStopWords))
	copy(stopWords, defaultStopWords)
	return Config{
		StopWords:        stopWords,
		MinKeywordLength: defaultMinKeywordLength,
	}
}

// Engine learns keyword to category associations.
type Engine struct {
	store     KeywordStore
	txns      TransactionLookup
	tokenizer *Tokenizer
	clock     func() time.Time
	logger    *slog.Logger
}

// NewEngine creates a keyword learning engine.
func NewEngine(store KeywordStore, txns TransactionLookup, cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		store:     store,
		txns:      txns,
		tokenizer: NewTokenizer(cfg.StopWords, cfg.MinKeywordLength),
		clock:     clock,
		logger:    common.LoggerOrDefault(cfg.Logger),
	}
}

// Tokenizer returns the tokenizer the engine extracts keywords with.
func (e *Engine) Tokenizer() *Tokenizer {
	return e.tokenizer
}

// learnedConfidence is the confidence of an association seen occurrences times.
func learnedConfidence(occurrences int) float64 {
	return math.Min(maxLearnedConfidence, initialConfidence+float64(occurrences)*confidenceStep)
}

// LearnFromFeedback associates the keywords of a transaction's description
// with the category the user chose. Failures are logged, never returned.
func (e *Engine) LearnFromFeedback(ctx context.Context, transactionID, correctCategory string) {
	if e.txns == nil {
		e.logger.Warn("No transaction lookup configured, skipping learning", "transaction_id", transactionID)
		return
	}

	txn, err := e.txns.GetTransactionByID(ctx, transactionID)
	if err != nil {
		e.logger.Error("Failed to load transaction for learning",
			"transaction_id", transactionID,
			"error", err)
		return
	}

	if strings.TrimSpace(txn.Description) == "" {
		e.logger.Warn("No description for transaction, skipping learning", "transaction_id", transactionID)
		return
	}

	e.LearnFromDescription(ctx, txn.Description, correctCategory)
}

// LearnFromDescription upserts one association per extracted keyword.
// Failures are logged and the remaining keywords are still processed.
func (e *Engine) LearnFromDescription(ctx context.Context, description, correctCategory string) {
	category := strings.TrimSpace(correctCategory)
	if category == "" {
		e.logger.Warn("No category given, skipping learning", "description", description)
		return
	}

	keywords := e.tokenizer.Tokenize(description)
	if len(keywords) == 0 {
		e.logger.Warn("No keywords extracted, skipping learning", "description", description)
		return
	}

	learned := 0
	for _, keyword := range keywords {
		if err := e.upsertKeyword(ctx, keyword, category); err != nil {
			e.logger.Error("Failed to learn keyword",
				"keyword", keyword,
				"category", category,
				"error", err)
			continue
		}
		learned++
	}

	e.logger.Info("Learned keywords",
		"count", learned,
		"category", category,
		"description", description)
}

func (e *Engine) upsertKeyword(ctx context.Context, keyword, category string) error {
	now := e.clock()

	existing, err := e.store.FindKeyword(ctx, keyword, category)
	if errors.Is(err, common.ErrNotFound) {
		err = e.store.CreateKeyword(ctx, &model.LearnedKeyword{
			Keyword:     keyword,
			Category:    category,
			Occurrences: 1,
			Confidence:  initialConfidence,
			Source:      model.KeywordSourceFeedback,
			LastSeen:    now,
		})
		if !errors.Is(err, common.ErrDuplicateEntry) {
			return err
		}
		// Another writer created the row first; reinforce it instead.
		existing, err = e.store.FindKeyword(ctx, keyword, category)
	}
	if err != nil {
		return err
	}

	occurrences := existing.Occurrences + 1
	return e.store.UpdateKeyword(ctx, existing.ID, occurrences, learnedConfidence(occurrences), now)
}

type categoryScore struct {
	category      string
	score         float64
	maxConfidence float64
}

// CategorizeByKeywords suggests a category for a description. It returns a
// nil suggestion when the description yields no keywords or nothing matches.
//
// Scores are the sum of occurrences*confidence per category. On equal scores
// the category reached first in store order (occurrences, then confidence,
// descending) wins.
func (e *Engine) CategorizeByKeywords(ctx context.Context, description string) (*model.KeywordSuggestion, error) {
	keywords := e.tokenizer.Tokenize(description)
	if len(keywords) == 0 {
		return nil, nil
	}

	matches, err := e.store.FindKeywordsIn(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to find keyword matches: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	var scores []*categoryScore
	index := make(map[string]*categoryScore)
	for _, match := range matches {
		s, ok := index[match.Category]
		if !ok {
			s = &categoryScore{category: match.Category}
			index[match.Category] = s
			scores = append(scores, s)
		}
		s.score += float64(match.Occurrences) * match.Confidence
		s.maxConfidence = math.Max(s.maxConfidence, match.Confidence)
	}

	var best *categoryScore
	for _, s := range scores {
		if s.score > 0 && (best == nil || s.score > best.score) {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}

	e.logger.Debug("Keyword match",
		"description", description,
		"category", best.category,
		"confidence", best.maxConfidence)

	return &model.KeywordSuggestion{
		Category:   best.category,
		Confidence: best.maxConfidence,
	}, nil
}

// AddKeyword inserts a manual association. A zero confidence means the default of 0.9.
func (e *Engine) AddKeyword(ctx context.Context, keyword, category string, confidence float64) (*model.LearnedKeyword, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	category = strings.TrimSpace(category)
	if keyword == "" || category == "" {
		return nil, ErrEmptyKeyword
	}
	if confidence == 0 {
		confidence = defaultManualConfidence
	}

	k := &model.LearnedKeyword{
		Keyword:     keyword,
		Category:    category,
		Occurrences: 1,
		Confidence:  confidence,
		Source:      model.KeywordSourceManual,
		LastSeen:    e.clock(),
	}
	if err := e.store.CreateKeyword(ctx, k); err != nil {
		return nil, fmt.Errorf("failed to add keyword %q: %w", keyword, err)
	}

	e.logger.Info("Manually added keyword", "keyword", keyword, "category", category)
	return k, nil
}

// DeleteKeyword removes an association by ID.
func (e *Engine) DeleteKeyword(ctx context.Context, id string) error {
	if err := e.store.DeleteKeyword(ctx, id); err != nil {
		return fmt.Errorf("failed to delete keyword %s: %w", id, err)
	}
	return nil
}

// GetKeywordsForCategory lists a category's associations, strongest first.
func (e *Engine) GetKeywordsForCategory(ctx context.Context, category string) ([]model.LearnedKeyword, error) {
	keywords, err := e.store.GetKeywordsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get keywords for %q: %w", category, err)
	}
	return keywords, nil
}

// GetKeywordStats summarizes the store.
func (e *Engine) GetKeywordStats(ctx context.Context) (*model.KeywordStats, error) {
	total, err := e.store.CountKeywords(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to count keywords: %w", err)
	}

	high, err := e.store.CountKeywords(ctx, highConfidenceThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to count high confidence keywords: %w", err)
	}

	byCategory, err := e.store.GetKeywordCategoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword stats: %w", err)
	}
	if byCategory == nil {
		byCategory = []model.CategoryKeywordStats{}
	}

	return &model.KeywordStats{
		Total:          total,
		HighConfidence: high,
		ByCategory:     byCategory,
	}, nil
}
