package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/service"
)

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage learned category keywords",
		Long: `Keywords are learned from category corrections and used to suggest
categories for new transactions.`,
	}

	cmd.AddCommand(keywordsLearnCmd())
	cmd.AddCommand(keywordsSuggestCmd())
	cmd.AddCommand(keywordsAddCmd())
	cmd.AddCommand(keywordsDeleteCmd())
	cmd.AddCommand(keywordsListCmd())
	cmd.AddCommand(keywordsStatsCmd())

	return cmd
}

// withStore opens storage for the duration of fn.
func withStore(cmd *cobra.Command, fn func(store service.Storage) error) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func keywordsLearnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn <transaction-id> <category>",
		Short: "Learn keywords from a transaction's description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store service.Storage) error {
				newKeywordEngine(store).LearnFromFeedback(cmd.Context(), args[0], args[1])
				fmt.Fprintf(cmd.OutOrStdout(), "Learned keywords for %s from transaction %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func keywordsSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <description>",
		Short: "Suggest a category from learned keywords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store service.Storage) error {
				suggestion, err := newKeywordEngine(store).CategorizeByKeywords(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if suggestion == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No keyword match")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (confidence %.2f)\n", suggestion.Category, suggestion.Confidence)
				return nil
			})
		},
	}
}

func keywordsAddCmd() *cobra.Command {
	var confidence float64

	cmd := &cobra.Command{
		Use:   "add <keyword> <category>",
		Short: "Add a keyword association manually",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store service.Storage) error {
				kw, err := newKeywordEngine(store).AddKeyword(cmd.Context(), args[0], args[1], confidence)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q -> %s (confidence %.2f) id=%s\n",
					kw.Keyword, kw.Category, kw.Confidence, kw.ID)
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence between 0 and 1 (default 0.9)")

	return cmd
}

func keywordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a keyword association",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store service.Storage) error {
				if err := newKeywordEngine(store).DeleteKeyword(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted keyword %s\n", args[0])
				return nil
			})
		},
	}
}

func keywordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <category>",
		Short: "List keywords learned for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store service.Storage) error {
				kws, err := newKeywordEngine(store).GetKeywordsForCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(kws) == 0 {
					fmt.Fprintf(w, "No keywords for %s\n", args[0])
					return nil
				}
				for _, kw := range kws {
					fmt.Fprintf(w, "%-20s  occurrences=%-4d  confidence=%.2f  source=%s  id=%s\n",
						kw.Keyword, kw.Occurrences, kw.Confidence, kw.Source, kw.ID)
				}
				return nil
			})
		},
	}
}

func keywordsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the learned keyword store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(store service.Storage) error {
				stats, err := newKeywordEngine(store).GetKeywordStats(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Total keywords: %d\n", stats.Total)
				fmt.Fprintf(w, "High confidence: %d\n", stats.HighConfidence)
				for _, c := range stats.ByCategory {
					fmt.Fprintf(w, "  %-20s  %4d keywords  avg confidence %.2f  avg occurrences %.1f\n",
						c.Category, c.Count, c.AvgConfidence, c.AvgOccurrences)
				}
				return nil
			})
		},
	}
}
