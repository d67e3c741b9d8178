package forecast

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/llm"
	"github.com/Veraticus/finflow/internal/model"
)

//go:embed templates/forecast_prompt.tmpl
var templateFS embed.FS

const (
	fallbackConfidence  = 0.75
	fallbackMethodology = "Statistical analysis of historical transactions combined with recurring expense patterns. Forecast uses historical averages and trend analysis."
)

// narrative is the JSON object the generator is asked to return.
type narrative struct {
	CategoryExplanations map[string]string `json:"categoryExplanations"`
	Confidence           *float64          `json:"confidence"`
	Methodology          string            `json:"methodology"`
	Insights             []string          `json:"insights"`
}

// story is the validated narrative applied to a result.
type story struct {
	CategoryExplanations map[string]string
	Methodology          string
	Insights             []string
	Confidence           float64
}

// promptData feeds templates/forecast_prompt.tmpl.
type promptData struct {
	Categories       []string
	Forecasts        []model.CategoryForecast
	Recurring        []model.RecurringTransaction
	TransactionCount int
	Months           int
	HistoryMonths    int
}

type promptBuilder struct {
	tmpl *template.Template
}

func newPromptBuilder() *promptBuilder {
	funcMap := template.FuncMap{
		"formatAmount": formatAmount,
		"formatPlain":  formatPlain,
		"join":         strings.Join,
	}
	tmpl := template.Must(template.New("forecast_prompt.tmpl").Funcs(funcMap).
		ParseFS(templateFS, "templates/forecast_prompt.tmpl"))
	return &promptBuilder{tmpl: tmpl}
}

func (pb *promptBuilder) build(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := pb.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute forecast prompt template: %w", err)
	}
	return buf.String(), nil
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func formatPlain(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// narrate asks the generator for explanations and insights. Every failure
// returns the fallback story.
func (e *Engine) narrate(ctx context.Context, in Input, history *categoryHistory, forecasts []model.CategoryForecast) story {
	fallback := e.fallbackStory(len(in.Transactions), len(history.order))

	if e.generator == nil {
		e.logger.Debug("No narrative generator configured, using fallback")
		return fallback
	}

	prompt, err := e.prompts.build(promptData{
		Categories:       history.order,
		Forecasts:        forecasts,
		Recurring:        in.RecurringTransactions,
		TransactionCount: len(in.Transactions),
		Months:           in.Months,
		HistoryMonths:    e.historyMonths,
	})
	if err != nil {
		e.logger.Warn("Failed to build forecast prompt, using fallback", "error", err)
		return fallback
	}

	text, err := e.generateOnce(llm.WithCaller(ctx, in.UserID), prompt)
	if err != nil {
		e.logger.Warn("Narrative generation failed, using fallback", "error", err)
		return fallback
	}

	parsed, err := parseNarrative(text)
	if err != nil {
		e.logger.Warn("Narrative response unusable, using fallback", "error", err)
		return fallback
	}

	return parsed
}

type generation struct {
	err  error
	text string
}

// generateOnce makes a single bounded attempt. It returns when the deadline
// passes even if the generator ignores its context.
func (e *Engine) generateOnce(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.narrativeTimeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("%w: generator panicked: %v", common.ErrNarrativeUnavailable, r)}
			}
		}()
		text, err := e.generator.Generate(ctx, prompt)
		done <- generation{text: text, err: err}
	}()

	select {
	case g := <-done:
		return g.text, g.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", common.ErrNarrativeUnavailable, ctx.Err())
	}
}

// parseNarrative extracts the first JSON object from text and validates it.
func parseNarrative(text string) (story, error) {
	raw, err := llm.ExtractJSONObject(text)
	if err != nil {
		return story{}, err
	}

	var n narrative
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return story{}, fmt.Errorf("%w: %w", common.ErrInvalidOutput, err)
	}

	switch {
	case n.Confidence == nil:
		return story{}, fmt.Errorf("%w: missing confidence", common.ErrInvalidOutput)
	case *n.Confidence < 0 || *n.Confidence > 1:
		return story{}, fmt.Errorf("%w: confidence %v outside [0, 1]", common.ErrInvalidOutput, *n.Confidence)
	case strings.TrimSpace(n.Methodology) == "":
		return story{}, fmt.Errorf("%w: missing methodology", common.ErrInvalidOutput)
	case n.Insights == nil:
		return story{}, fmt.Errorf("%w: missing insights", common.ErrInvalidOutput)
	}

	explanations := n.CategoryExplanations
	if explanations == nil {
		explanations = map[string]string{}
	}

	return story{
		CategoryExplanations: explanations,
		Confidence:           *n.Confidence,
		Methodology:          n.Methodology,
		Insights:             n.Insights,
	}, nil
}

func (e *Engine) fallbackStory(transactionCount, categoryCount int) story {
	volume := "No historical data available - forecast based on recurring transactions only"
	if transactionCount > 0 {
		volume = fmt.Sprintf("Analyzed %d transactions across %d categories", transactionCount, categoryCount)
	}

	return story{
		CategoryExplanations: map[string]string{},
		Confidence:           fallbackConfidence,
		Methodology:          fallbackMethodology,
		Insights: []string{
			fmt.Sprintf("Forecast based on historical spending patterns from the last %d months", e.historyMonths),
			"Recurring transactions have been included in projections",
			volume,
		},
	}
}
