// Package model defines the core data structures for the finflow application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType indicates whether money came in or went out.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// IsValid reports whether the type is one of the known values.
func (t TransactionType) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction represents a single historical financial transaction.
type Transaction struct {
	Date        time.Time       `json:"date"`
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description,omitempty"`
	AccountID   string          `json:"accountId,omitempty"`
	Amount      float64         `json:"amount"`
}

// GenerateID derives a stable identifier for transactions that arrive without one.
func (t *Transaction) GenerateID() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Type,
		t.Description,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:16])
}

// Frequency is how often a recurring transaction repeats.
type Frequency string

// Frequency constants.
const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyBiweekly  Frequency = "BIWEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// MonthlyMultiplier converts one occurrence into its monthly equivalent.
// Unknown frequencies are treated as monthly.
func (f Frequency) MonthlyMultiplier() float64 {
	switch f {
	case FrequencyDaily:
		return 30
	case FrequencyWeekly:
		return 4.33
	case FrequencyBiweekly:
		return 2.17
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 1.0 / 3.0
	case FrequencyYearly:
		return 1.0 / 12.0
	default:
		return 1
	}
}

// IsValid reports whether the frequency is one of the known values.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringTransaction is a repeating income or expense definition.
type RecurringTransaction struct {
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Frequency   Frequency       `json:"frequency"`
	Description string          `json:"description,omitempty"`
	Amount      float64         `json:"amount"`
	IsActive    bool            `json:"isActive"`
}

// MonthlyAmount returns the monthly-equivalent amount of the definition.
func (r RecurringTransaction) MonthlyAmount() float64 {
	return r.Amount * r.Frequency.MonthlyMultiplier()
}
