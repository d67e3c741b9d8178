package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/finflow/internal/model"
	"github.com/google/uuid"
)

// SaveRecurringTransaction inserts or replaces a recurring definition.
// A missing ID is filled with a new UUID.
func (s *SQLiteStorage) SaveRecurringTransaction(ctx context.Context, recurring *model.RecurringTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecurring(recurring); err != nil {
		return err
	}

	if recurring.ID == "" {
		recurring.ID = uuid.NewString()
	}
	if recurring.StartDate.IsZero() {
		recurring.StartDate = time.Now()
	}

	var endDate sql.NullTime
	if recurring.EndDate != nil {
		endDate = sql.NullTime{Time: recurring.EndDate.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (
			id, amount, category, type, frequency, description, start_date, end_date, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			category = excluded.category,
			type = excluded.type,
			frequency = excluded.frequency,
			description = excluded.description,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			is_active = excluded.is_active
	`,
		recurring.ID,
		recurring.Amount,
		recurring.Category,
		string(recurring.Type),
		string(recurring.Frequency),
		nullString(recurring.Description),
		recurring.StartDate.UTC(),
		endDate,
		recurring.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to save recurring transaction: %w", err)
	}

	return nil
}

// GetActiveRecurringTransactions returns active definitions that have not ended before asOf,
// in insertion order.
func (s *SQLiteStorage) GetActiveRecurringTransactions(ctx context.Context, asOf time.Time) ([]model.RecurringTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, category, type, frequency, description, start_date, end_date, is_active
		FROM recurring_transactions
		WHERE is_active = 1 AND (end_date IS NULL OR end_date >= ?)
		ORDER BY rowid ASC
	`, asOf.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.RecurringTransaction
	for rows.Next() {
		var (
			r           model.RecurringTransaction
			txnType     string
			frequency   string
			description sql.NullString
			endDate     sql.NullTime
		)
		if err := rows.Scan(
			&r.ID, &r.Amount, &r.Category, &txnType, &frequency,
			&description, &r.StartDate, &endDate, &r.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recurring transaction: %w", err)
		}
		r.Type = model.TransactionType(txnType)
		r.Frequency = model.Frequency(frequency)
		r.Description = description.String
		if endDate.Valid {
			end := endDate.Time
			r.EndDate = &end
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring transactions: %w", err)
	}

	return result, nil
}

// DeleteRecurringTransaction removes a recurring definition.
func (s *SQLiteStorage) DeleteRecurringTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recurring transaction: %w", err)
	}

	return requireAffected(result, "recurring transaction "+id)
}
