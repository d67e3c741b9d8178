package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/finflow/internal/model"
)

// Common category names used across tests.
const (
	CategoryFoodDining     = "Food & Dining"
	CategoryGroceries      = "Groceries"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryHousing        = "Housing"
	CategorySalary         = "Salary"
	CategoryUtilities      = "Utilities"
)

// TransactionBuilder builds a series of transactions with a fluent API.
//
// Example:
//
//	txns := testutil.NewTransactionBuilder(start).
//		Expense("Food & Dining", "Starbucks", 100, 100, 100).
//		Build()
type TransactionBuilder struct {
	start time.Time
	txns  []model.Transaction
	step  time.Duration
}

// NewTransactionBuilder creates a builder whose first transaction is dated start.
// Each following transaction is one day later.
func NewTransactionBuilder(start time.Time) *TransactionBuilder {
	return &TransactionBuilder{start: start, step: 24 * time.Hour}
}

// Every changes the spacing between consecutive transactions.
func (b *TransactionBuilder) Every(step time.Duration) *TransactionBuilder {
	b.step = step
	return b
}

// Expense appends one expense per amount.
func (b *TransactionBuilder) Expense(category, description string, amounts ...float64) *TransactionBuilder {
	return b.add(model.TypeExpense, category, description, amounts)
}

// Income appends one income per amount.
func (b *TransactionBuilder) Income(category, description string, amounts ...float64) *TransactionBuilder {
	return b.add(model.TypeIncome, category, description, amounts)
}

func (b *TransactionBuilder) add(txnType model.TransactionType, category, description string, amounts []float64) *TransactionBuilder {
	for _, amount := range amounts {
		n := len(b.txns)
		b.txns = append(b.txns, model.Transaction{
			ID:          fmt.Sprintf("txn-%03d", n+1),
			Date:        b.start.Add(time.Duration(n) * b.step),
			Amount:      amount,
			Category:    category,
			Type:        txnType,
			Description: description,
			AccountID:   "test-account",
		})
	}
	return b
}

// Build returns the accumulated transactions.
func (b *TransactionBuilder) Build() []model.Transaction {
	out := make([]model.Transaction, len(b.txns))
	copy(out, b.txns)
	return out
}

// Monthly returns an active monthly recurring definition starting at start.
func Monthly(category, description string, amount float64, txnType model.TransactionType, start time.Time) model.RecurringTransaction {
	return model.RecurringTransaction{
		Amount:      amount,
		Category:    category,
		Type:        txnType,
		Frequency:   model.FrequencyMonthly,
		Description: description,
		StartDate:   start,
		IsActive:    true,
	}
}
