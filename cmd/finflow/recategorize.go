package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/service"
)

func recategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recategorize <transaction-id> <category>",
		Short: "Correct a transaction's category and learn from it",
		Long: `Set the category of a stored transaction. The correction is fed back into
keyword learning so similar descriptions are suggested correctly next time.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, category := args[0], strings.TrimSpace(args[1])
			if category == "" {
				return common.NewUserError("category must not be empty", common.ErrInvalidConfig)
			}

			return withStore(cmd, func(store service.Storage) error {
				ctx := cmd.Context()
				if err := store.UpdateTransactionCategory(ctx, id, category); err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return common.NewUserError(fmt.Sprintf("transaction %s not found", id), err)
					}
					return fmt.Errorf("failed to update category: %w", err)
				}

				newKeywordEngine(store).LearnFromFeedback(ctx, id, category)

				fmt.Fprintf(cmd.OutOrStdout(), "Recategorized %s as %s\n", id, category)
				return nil
			})
		},
	}
}
