// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/finflow/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      model.TransactionType
	Limit     int
}

// TransactionStore reads and writes historical transactions.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, id, category string) error
}

// RecurringStore reads and writes recurring transaction definitions.
type RecurringStore interface {
	SaveRecurringTransaction(ctx context.Context, recurring *model.RecurringTransaction) error
	GetActiveRecurringTransactions(ctx context.Context, asOf time.Time) ([]model.RecurringTransaction, error)
	DeleteRecurringTransaction(ctx context.Context, id string) error
}

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

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionStore
	RecurringStore
	KeywordStore

	Migrate(ctx context.Context) error
	Close() error
}
