package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring income and expenses",
		Long:  `Recurring transactions are projected into every forecast month alongside historical averages.`,
	}

	cmd.AddCommand(recurringAddCmd())
	cmd.AddCommand(recurringListCmd())
	cmd.AddCommand(recurringDeleteCmd())

	return cmd
}

func recurringAddCmd() *cobra.Command {
	var (
		amount      float64
		category    string
		txnType     string
		frequency   string
		description string
		startDate   string
		endDate     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring transaction",
		Example: `  finflow recurring add --category Housing --amount 1500 --frequency MONTHLY --description Rent
  finflow recurring add --category Salary --type INCOME --amount 2400 --frequency BIWEEKLY`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			recurring := &model.RecurringTransaction{
				Amount:      amount,
				Category:    strings.TrimSpace(category),
				Type:        model.TransactionType(strings.ToUpper(txnType)),
				Frequency:   model.Frequency(strings.ToUpper(frequency)),
				Description: description,
				StartDate:   time.Now(),
				IsActive:    true,
			}
			if !recurring.Type.IsValid() {
				return common.NewUserError("type must be INCOME or EXPENSE", common.ErrInvalidConfig)
			}
			if !recurring.Frequency.IsValid() {
				return common.NewUserError("frequency must be one of DAILY, WEEKLY, BIWEEKLY, MONTHLY, QUARTERLY, YEARLY", common.ErrInvalidConfig)
			}
			if startDate != "" {
				start, err := parseDate(startDate)
				if err != nil {
					return err
				}
				recurring.StartDate = start
			}
			if endDate != "" {
				end, err := parseDate(endDate)
				if err != nil {
					return err
				}
				recurring.EndDate = &end
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveRecurringTransaction(ctx, recurring); err != nil {
				return fmt.Errorf("failed to save recurring transaction: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added recurring %s %s %s (%s/month) id=%s\n",
				recurring.Category, formatAmount(recurring.Amount), recurring.Frequency,
				formatAmount(recurring.MonthlyAmount()), recurring.ID)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount per occurrence")
	cmd.Flags().StringVar(&category, "category", "", "Category name")
	cmd.Flags().StringVar(&txnType, "type", string(model.TypeExpense), "INCOME or EXPENSE")
	cmd.Flags().StringVar(&frequency, "frequency", string(model.FrequencyMonthly), "DAILY, WEEKLY, BIWEEKLY, MONTHLY, QUARTERLY or YEARLY")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func recurringListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active recurring transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			recurring, err := store.GetActiveRecurringTransactions(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("failed to load recurring transactions: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(recurring) == 0 {
				fmt.Fprintln(w, "No active recurring transactions")
				return nil
			}

			for _, r := range recurring {
				description := r.Description
				if description == "" {
					description = "Unnamed"
				}
				fmt.Fprintf(w, "%-36s  %-7s  %-16s  %10s  %-9s  %s\n",
					r.ID, r.Type, r.Category, formatAmount(r.Amount), r.Frequency, description)
			}
			return nil
		},
	}
}

func recurringDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRecurringTransaction(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete recurring transaction: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted recurring transaction %s\n", args[0])
			return nil
		},
	}
}
