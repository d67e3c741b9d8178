package model

import "time"

// KeywordSource indicates how a learned keyword was created.
type KeywordSource string

const (
	// KeywordSourceFeedback marks keywords learned from user corrections.
	KeywordSourceFeedback KeywordSource = "user_feedback"
	// KeywordSourceManual marks keywords added by an administrator.
	KeywordSourceManual KeywordSource = "manual"
)

// LearnedKeyword associates a description token with a category.
// The same keyword may map to several categories, each tracked independently.
type LearnedKeyword struct {
	LastSeen    time.Time     `json:"lastSeen"`
	ID          string        `json:"id"`
	Keyword     string        `json:"keyword"`
	Category    string        `json:"category"`
	Source      KeywordSource `json:"source"`
	Occurrences int           `json:"occurrences"`
	Confidence  float64       `json:"confidence"`
}

// KeywordSuggestion is a category suggested from learned keywords.
type KeywordSuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// CategoryKeywordStats aggregates learned keywords for one category.
type CategoryKeywordStats struct {
	Category       string  `json:"category"`
	Count          int     `json:"count"`
	AvgConfidence  float64 `json:"avgConfidence"`
	AvgOccurrences float64 `json:"avgOccurrences"`
}

// KeywordStats summarizes the learned keyword store.
type KeywordStats struct {
	ByCategory     []CategoryKeywordStats `json:"byCategory"`
	Total          int                    `json:"total"`
	HighConfidence int                    `json:"highConfidence"`
}
