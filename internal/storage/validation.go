// Package storage provides the data persistence layer for the finflow application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/finflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidRecurring   = errors.New("invalid recurring transaction")
	ErrInvalidKeyword     = errors.New("invalid keyword")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if !txn.Type.IsValid() {
		return fmt.Errorf("%w: type %q", ErrInvalidTransaction, txn.Type)
	}
	if txn.Amount < 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	return nil
}

// validateRecurring validates a recurring transaction definition.
func validateRecurring(r *model.RecurringTransaction) error {
	if r == nil {
		return fmt.Errorf("%w: recurring transaction", ErrNilParameter)
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidRecurring)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: type %q", ErrInvalidRecurring, r.Type)
	}
	if !r.Frequency.IsValid() {
		return fmt.Errorf("%w: frequency %q", ErrInvalidRecurring, r.Frequency)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRecurring)
	}
	if r.EndDate != nil && !r.StartDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: %w", ErrInvalidRecurring, ErrInvalidDateRange)
	}
	return nil
}

// validateKeyword validates a learned keyword row.
func validateKeyword(k *model.LearnedKeyword) error {
	if k == nil {
		return fmt.Errorf("%w: keyword", ErrNilParameter)
	}
	if strings.TrimSpace(k.Keyword) == "" {
		return fmt.Errorf("%w: missing keyword", ErrInvalidKeyword)
	}
	if strings.TrimSpace(k.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidKeyword)
	}
	if err := validateConfidence(k.Confidence); err != nil {
		return err
	}
	if k.Occurrences < 1 {
		return fmt.Errorf("%w: occurrences must be at least 1", ErrInvalidKeyword)
	}
	switch k.Source {
	case model.KeywordSourceFeedback, model.KeywordSourceManual:
	default:
		return fmt.Errorf("%w: source %q", ErrInvalidKeyword, k.Source)
	}
	return nil
}

func validateConfidence(confidence float64) error {
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidKeyword)
	}
	return nil
}
