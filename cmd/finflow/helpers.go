package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/finflow/internal/keywords"
	"github.com/Veraticus/finflow/internal/service"
	"github.com/Veraticus/finflow/internal/storage"
)

const dateLayout = "2006-01-02"

var envKeyReplacer = strings.NewReplacer(".", "_")

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := appConfig.DatabasePath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newKeywordEngine builds a keyword engine over store using configured tokenization.
func newKeywordEngine(store service.Storage) *keywords.Engine {
	cfg := keywords.DefaultConfig()
	if len(appConfig.Keywords.StopWords) > 0 {
		cfg.StopWords = appConfig.Keywords.StopWords
	}
	if appConfig.Keywords.MinKeywordLength > 0 {
		cfg.MinKeywordLength = appConfig.Keywords.MinKeywordLength
	}
	return keywords.NewEngine(store, store, cfg)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
