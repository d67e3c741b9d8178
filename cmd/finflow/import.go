package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/keywords"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/ofx"
)

const uncategorized = "Uncategorized"

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported from your bank.

Each transaction is categorized from learned keywords when possible and
falls back to "Uncategorized" otherwise.

Examples:
  # Import single file
  finflow import ~/Downloads/chase_jan_2024.qfx

  # Import every QFX file in a directory
  finflow import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	transactions, err := parseFiles(ctx, files)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	categorized := categorizeTransactions(ctx, newKeywordEngine(store), transactions, cmd.ErrOrStderr())

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Dry run: %d transactions parsed (%d categorized from keywords), nothing saved\n",
			len(transactions), categorized)
		return nil
	}

	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions from %d files (%d categorized from keywords)\n",
		len(transactions), len(files), categorized)

	return nil
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseFiles parses every file and drops transactions already seen in an
// earlier file.
func parseFiles(ctx context.Context, files []string) ([]model.Transaction, error) {
	parser := ofx.NewParser()
	seen := make(map[string]struct{})
	var all []model.Transaction

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}

		transactions, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, txn := range transactions {
			if _, dup := seen[txn.ID]; dup {
				continue
			}
			seen[txn.ID] = struct{}{}
			all = append(all, txn)
			added++
		}

		slog.Info("Processed file",
			"file", filepath.Base(path),
			"transactions_found", len(transactions),
			"added", added,
			"duplicates", len(transactions)-added)
	}

	return all, nil
}

// categorizeTransactions fills empty categories in place and returns how
// many came from learned keywords.
func categorizeTransactions(ctx context.Context, engine *keywords.Engine, transactions []model.Transaction, w io.Writer) int {
	bar := progressbar.NewOptions(len(transactions),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Categorizing transactions..."),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)

	categorized := 0
	for i := range transactions {
		txn := &transactions[i]
		if txn.Category == "" {
			txn.Category = uncategorized

			suggestion, err := engine.CategorizeByKeywords(ctx, txn.Description)
			switch {
			case err != nil:
				slog.Warn("Keyword categorization failed", "transaction_id", txn.ID, "error", err)
			case suggestion != nil:
				txn.Category = suggestion.Category
				categorized++
			}
		}

		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	return categorized
}
