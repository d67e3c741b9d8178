package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/finflow/internal/forecast"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/service"
)

const (
	minForecastMonths = 1
	maxForecastMonths = 6
)

func forecastCmd() *cobra.Command {
	var (
		months int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project income and expenses for the coming months",
		Long: `Forecast combines the average of your recent history per category with
your active recurring transactions, detects spending trends and, when an
LLM provider is configured, adds a short narrative.

The horizon is clamped to 1-6 months.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("months") {
				months = appConfig.Forecast.DefaultMonths
			}
			return runForecast(cmd.Context(), cmd.OutOrStdout(), clampMonths(months), asJSON)
		},
	}

	cmd.Flags().IntVarP(&months, "months", "m", 3, "Number of months to forecast (1-6)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the forecast as JSON")

	return cmd
}

func clampMonths(months int) int {
	return min(max(months, minForecastMonths), maxForecastMonths)
}

func runForecast(ctx context.Context, w io.Writer, months int, asJSON bool) error {
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	history, recurring, err := loadForecastInputs(ctx, store, now, appConfig.Forecast.HistoryMonths)
	if err != nil {
		return err
	}

	generator, cleanup, err := createNarrativeClient()
	if err != nil {
		return err
	}
	defer cleanup()

	engine := forecast.NewEngine(generator,
		forecast.WithNarrativeTimeout(appConfig.Forecast.NarrativeTimeout),
		forecast.WithHistoryMonths(appConfig.Forecast.HistoryMonths),
		forecast.WithLogger(slog.Default()),
	)

	result, err := engine.GenerateForecast(ctx, forecast.Input{
		Transactions:          history,
		RecurringTransactions: recurring,
		Months:                months,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printForecast(w, result)
	return nil
}

// loadForecastInputs reads recent history and active recurring definitions concurrently.
func loadForecastInputs(ctx context.Context, store service.Storage, now time.Time, historyMonths int) ([]model.Transaction, []model.RecurringTransaction, error) {
	var (
		history   []model.Transaction
		recurring []model.RecurringTransaction
	)

	start := now.AddDate(0, -historyMonths, 0)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txns, err := store.GetTransactions(gCtx, service.TransactionFilter{StartDate: &start})
		if err != nil {
			return fmt.Errorf("history fetch: %w", err)
		}
		history = txns
		return nil
	})

	g.Go(func() error {
		defs, err := store.GetActiveRecurringTransactions(gCtx, now)
		if err != nil {
			return fmt.Errorf("recurring fetch: %w", err)
		}
		recurring = defs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	slog.Debug("Loaded forecast inputs",
		"transactions", len(history),
		"recurring", len(recurring),
		"since", start.Format(dateLayout))

	return history, recurring, nil
}

func printForecast(w io.Writer, result *model.ForecastResult) {
	fmt.Fprintf(w, "Forecast generated %s (confidence %.0f%%)\n\n",
		result.GeneratedAt.Format(time.RFC1123), result.Confidence*100)

	for _, month := range result.Months {
		fmt.Fprintf(w, "%s %d\n", time.Month(month.Month), month.Year)
		for _, c := range month.Categories {
			fmt.Fprintf(w, "  %-7s  %-20s  %10s  %-10s  %s\n",
				c.Type, c.Category, formatAmount(c.Projected), c.Trend, c.Explanation)
		}
		fmt.Fprintf(w, "  income %s  expense %s  net %s\n\n",
			formatAmount(month.TotalIncome), formatAmount(month.TotalExpense), formatAmount(month.NetBalance))
	}

	fmt.Fprintf(w, "Total projected expense: %s\n", formatAmount(result.TotalProjected))
	fmt.Fprintf(w, "Total projected income:  %s\n\n", formatAmount(result.TotalIncome))
	fmt.Fprintf(w, "Methodology: %s\n", result.Methodology)
	if len(result.Insights) > 0 {
		fmt.Fprintln(w, "Insights:")
		for _, insight := range result.Insights {
			fmt.Fprintf(w, "  - %s\n", insight)
		}
	}
}
