package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const keywordColumns = `id, keyword, category, occurrences, confidence, source, last_seen`

// keywordOrder puts the strongest associations first; keyword and id make ties deterministic.
const keywordOrder = ` ORDER BY occurrences DESC, confidence DESC, keyword ASC, id ASC`

// FindKeyword retrieves the association for one (keyword, category) pair.
func (s *SQLiteStorage) FindKeyword(ctx context.Context, keyword, category string) (*model.LearnedKeyword, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+keywordColumns+` FROM category_keywords WHERE keyword = ? AND category = ?`,
		keyword, category)

	k, err := scanKeyword(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("keyword %q for %q: %w", keyword, category, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}

	return k, nil
}

// FindKeywordsIn returns every association whose keyword is in the set,
// ordered by occurrences then confidence, both descending.
func (s *SQLiteStorage) FindKeywordsIn(ctx context.Context, keywords []string) ([]model.LearnedKeyword, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keywords)), ",")
	args := make([]any, len(keywords))
	for i, k := range keywords {
		args[i] = k
	}

	return s.queryKeywords(ctx,
		`SELECT `+keywordColumns+` FROM category_keywords WHERE keyword IN (`+placeholders+`)`+keywordOrder,
		args...)
}

// GetKeywordsByCategory returns every association for a category.
func (s *SQLiteStorage) GetKeywordsByCategory(ctx context.Context, category string) ([]model.LearnedKeyword, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	return s.queryKeywords(ctx,
		`SELECT `+keywordColumns+` FROM category_keywords WHERE category = ?`+keywordOrder,
		category)
}

// CreateKeyword inserts a new association. A missing ID is filled with a new UUID.
func (s *SQLiteStorage) CreateKeyword(ctx context.Context, keyword *model.LearnedKeyword) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKeyword(keyword); err != nil {
		return err
	}

	if keyword.ID == "" {
		keyword.ID = uuid.NewString()
	}
	if keyword.LastSeen.IsZero() {
		keyword.LastSeen = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_keywords (`+keywordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		keyword.ID,
		keyword.Keyword,
		keyword.Category,
		keyword.Occurrences,
		keyword.Confidence,
		string(keyword.Source),
		keyword.LastSeen.UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("keyword %q for %q: %w", keyword.Keyword, keyword.Category, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create keyword: %w", err)
	}

	return nil
}

// UpdateKeyword overwrites the counters of an existing association.
func (s *SQLiteStorage) UpdateKeyword(ctx context.Context, id string, occurrences int, confidence float64, lastSeen time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateConfidence(confidence); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE category_keywords
		SET occurrences = ?, confidence = ?, last_seen = ?
		WHERE id = ?
	`, occurrences, confidence, lastSeen.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update keyword: %w", err)
	}

	return requireAffected(result, "keyword "+id)
}

// DeleteKeyword removes an association.
func (s *SQLiteStorage) DeleteKeyword(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM category_keywords WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}

	return requireAffected(result, "keyword "+id)
}

// CountKeywords counts associations with confidence of at least minConfidence.
func (s *SQLiteStorage) CountKeywords(ctx context.Context, minConfidence float64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM category_keywords WHERE confidence >= ?`, minConfidence).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count keywords: %w", err)
	}

	return count, nil
}

// GetKeywordCategoryStats groups associations by category with count and averages.
func (s *SQLiteStorage) GetKeywordCategoryStats(ctx context.Context) ([]model.CategoryKeywordStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), AVG(confidence), AVG(occurrences)
		FROM category_keywords
		GROUP BY category
		ORDER BY category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.CategoryKeywordStats
	for rows.Next() {
		var stat model.CategoryKeywordStats
		if err := rows.Scan(&stat.Category, &stat.Count, &stat.AvgConfidence, &stat.AvgOccurrences); err != nil {
			return nil, fmt.Errorf("failed to scan keyword stats: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keyword stats: %w", err)
	}

	return stats, nil
}

func (s *SQLiteStorage) queryKeywords(ctx context.Context, query string, args ...any) ([]model.LearnedKeyword, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []model.LearnedKeyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, *k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keywords: %w", err)
	}

	return keywords, nil
}

func scanKeyword(row scanner) (*model.LearnedKeyword, error) {
	var (
		k      model.LearnedKeyword
		source string
	)
	if err := row.Scan(&k.ID, &k.Keyword, &k.Category, &k.Occurrences, &k.Confidence, &source, &k.LastSeen); err != nil {
		return nil, err
	}
	k.Source = model.KeywordSource(source)
	return &k, nil
}

func requireAffected(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return nil
}
