// Package testutil provides test utilities for the finflow project: an
// isolated, migrated database and fluent builders for seed data.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup  func(context.Context, *storage.SQLiteStorage) error
	Transactions []model.Transaction
	Recurring    []model.RecurringTransaction
	Keywords     []model.LearnedKeyword
}

// SetupTestDB creates a new in-memory, migrated test database.
// It registers cleanup with the test.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	engine := keywords.NewEngine(db.Storage, db.Storage, keywords.DefaultConfig())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database and seeds it.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store, t: t}

	if len(opts.Transactions) > 0 {
		db.SeedTransactions(opts.Transactions...)
	}
	for i := range opts.Recurring {
		db.SeedRecurring(&opts.Recurring[i])
	}
	for i := range opts.Keywords {
		db.SeedKeyword(&opts.Keywords[i])
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// SeedTransactions stores transactions or fails the test.
func (db *TestDB) SeedTransactions(txns ...model.Transaction) {
	db.t.Helper()
	if err := db.Storage.SaveTransactions(context.Background(), txns); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
}

// SeedRecurring stores a recurring definition or fails the test.
func (db *TestDB) SeedRecurring(r *model.RecurringTransaction) {
	db.t.Helper()
	if err := db.Storage.SaveRecurringTransaction(context.Background(), r); err != nil {
		db.t.Fatalf("failed to seed recurring transaction: %v", err)
	}
}

// SeedKeyword stores a keyword association or fails the test.
func (db *TestDB) SeedKeyword(k *model.LearnedKeyword) {
	db.t.Helper()
	if err := db.Storage.CreateKeyword(context.Background(), k); err != nil {
		db.t.Fatalf("failed to seed keyword %q: %v", k.Keyword, err)
	}
}

// MustFindKeyword returns the association for (keyword, category) or fails the test.
func (db *TestDB) MustFindKeyword(keyword, category string) *model.LearnedKeyword {
	db.t.Helper()
	k, err := db.Storage.FindKeyword(context.Background(), keyword, category)
	if err != nil {
		db.t.Fatalf("keyword %q for %q not found: %v", keyword, category, err)
	}
	return k
}
