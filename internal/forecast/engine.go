// Package forecast projects monthly income and spending per category from
// historical transactions and recurring definitions, and asks a narrative
// generator to explain the result.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
)

const (
	defaultNarrativeTimeout = 30 * time.Second
	defaultHistoryMonths    = 6

	historicalConfidence    = 0.8
	recurringOnlyConfidence = 0.6
)

// NarrativeGenerator turns a prompt into free-form text that should contain
// one JSON object describing the forecast.
type NarrativeGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Input is the data a forecast is computed from.
type Input struct {
	UserID                string
	Transactions          []model.Transaction
	RecurringTransactions []model.RecurringTransaction
	Months                int
}

// Engine computes forecasts. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	generator        NarrativeGenerator
	prompts          *promptBuilder
	clock            func() time.Time
	logger           *slog.Logger
	narrativeTimeout time.Duration
	historyMonths    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithNarrativeTimeout bounds the single narrative generation attempt.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.narrativeTimeout = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = common.LoggerOrDefault(logger)
	}
}

// WithHistoryMonths records how many months of history callers load. It
// only affects the narrative text.
func WithHistoryMonths(months int) Option {
	return func(e *Engine) {
		if months > 0 {
			e.historyMonths = months
		}
	}
}

// NewEngine creates a forecast engine. A nil generator always yields the
// fallback narrative.
func NewEngine(generator NarrativeGenerator, opts ...Option) *Engine {
	e := &Engine{
		generator:        generator,
		prompts:          newPromptBuilder(),
		clock:            time.Now,
		logger:           slog.Default(),
		narrativeTimeout: defaultNarrativeTimeout,
		historyMonths:    defaultHistoryMonths,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateForecast builds a forecast for the requested number of months.
// Narrative failures never fail the call; anything else is reported as
// common.ErrForecastFailed.
func (e *Engine) GenerateForecast(ctx context.Context, in Input) (result *model.ForecastResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Forecast generation panicked", "user_id", in.UserID, "panic", r)
			result = nil
			err = fmt.Errorf("%w: %v", common.ErrForecastFailed, r)
		}
	}()

	result, err = e.generate(ctx, in)
	if err != nil {
		e.logger.Error("Forecast generation failed", "user_id", in.UserID, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrForecastFailed, err)
	}
	return result, nil
}

func (e *Engine) generate(ctx context.Context, in Input) (*model.ForecastResult, error) {
	if in.Months <= 0 {
		return nil, fmt.Errorf("%w: got %d", common.ErrInvalidHorizon, in.Months)
	}
	if err := validateAmounts(in); err != nil {
		return nil, err
	}

	e.logger.Info("Generating forecast",
		"user_id", in.UserID,
		"months", in.Months,
		"transactions", len(in.Transactions),
		"recurring", len(in.RecurringTransactions))

	now := e.clock()

	if len(in.Transactions) == 0 && len(in.RecurringTransactions) == 0 {
		e.logger.Info("No data available for forecast", "user_id", in.UserID)
		return emptyResult(now), nil
	}

	history := aggregateHistory(in.Transactions)
	recurring := aggregateRecurring(in.RecurringTransactions)
	forecasts := buildCategoryForecasts(history, recurring)

	story := e.narrate(ctx, in, history, forecasts)
	for i := range forecasts {
		if explanation := story.CategoryExplanations[forecasts[i].Category]; explanation != "" {
			forecasts[i].Explanation = explanation
		} else {
			forecasts[i].Explanation = fmt.Sprintf("Projected based on %s historical trend.", forecasts[i].Trend)
		}
	}

	months := expandMonths(now, in.Months, forecasts)

	var totalExpense, totalIncome float64
	for _, m := range months {
		totalExpense += m.TotalExpense
		totalIncome += m.TotalIncome
	}

	e.logger.Info("Forecast generated",
		"user_id", in.UserID,
		"categories", len(forecasts),
		"total_projected", totalExpense,
		"confidence", story.Confidence)

	return &model.ForecastResult{
		Months:         months,
		TotalProjected: totalExpense,
		TotalIncome:    totalIncome,
		TotalExpense:   totalExpense,
		Confidence:     story.Confidence,
		Methodology:    story.Methodology,
		Insights:       story.Insights,
		GeneratedAt:    now,
	}, nil
}

// buildCategoryForecasts combines averages and recurring amounts in
// first-seen category order, dropping categories that project to zero.
func buildCategoryForecasts(history *categoryHistory, recurring *recurringTotals) []model.CategoryForecast {
	var forecasts []model.CategoryForecast

	add := func(category string) {
		hist, hasHistory := history.byCategory[category]
		monthly := recurring.byCategory[category]

		var average float64
		txnType := recurring.types[category]
		confidence := recurringOnlyConfidence
		trend := model.TrendStable
		if hasHistory {
			average = hist.average()
			txnType = hist.txnType
			confidence = historicalConfidence
			trend = hist.trend()
		}

		projected := average + monthly
		if projected == 0 {
			return
		}

		forecasts = append(forecasts, model.CategoryForecast{
			Category:   category,
			Type:       txnType,
			Projected:  projected,
			Historical: average,
			Trend:      trend,
			Confidence: confidence,
		})
	}

	for _, category := range history.order {
		add(category)
	}
	for _, category := range recurring.order {
		if _, seen := history.byCategory[category]; !seen {
			add(category)
		}
	}

	return forecasts
}

// expandMonths repeats the steady-state estimate for each month after now.
func expandMonths(now time.Time, horizon int, forecasts []model.CategoryForecast) []model.MonthlyForecast {
	var income, expense float64
	for _, f := range forecasts {
		switch f.Type {
		case model.TypeIncome:
			income += f.Projected
		case model.TypeExpense:
			expense += f.Projected
		}
	}

	months := make([]model.MonthlyForecast, 0, horizon)
	for i := 1; i <= horizon; i++ {
		date := time.Date(now.Year(), now.Month()+time.Month(i), 1, 0, 0, 0, 0, now.Location())
		months = append(months, model.MonthlyForecast{
			Month:        int(date.Month()),
			Year:         date.Year(),
			TotalIncome:  income,
			TotalExpense: expense,
			NetBalance:   income - expense,
			Categories:   forecasts,
		})
	}
	return months
}

func emptyResult(now time.Time) *model.ForecastResult {
	return &model.ForecastResult{
		Months:      []model.MonthlyForecast{},
		Confidence:  0,
		Methodology: "No historical data or recurring transactions available for forecasting.",
		Insights: []string{
			"No transaction data available yet. Start by adding some transactions or recurring expenses to generate a forecast.",
			"Once you have at least a few weeks of transaction history, the forecast will become more accurate.",
		},
		GeneratedAt: now,
	}
}

func validateAmounts(in Input) error {
	for i, txn := range in.Transactions {
		if math.IsNaN(txn.Amount) || math.IsInf(txn.Amount, 0) {
			return fmt.Errorf("transaction at index %d has non-finite amount", i)
		}
	}
	for i, r := range in.RecurringTransactions {
		if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
			return fmt.Errorf("recurring transaction at index %d has non-finite amount", i)
		}
	}
	return nil
}
