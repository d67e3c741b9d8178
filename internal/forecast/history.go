package forecast

import (
	"sort"

	"github.com/Veraticus/finflow/internal/model"
	"gonum.org/v1/gonum/stat"
)

const (
	minTrendTransactions = 4
	trendThresholdPct    = 10.0
)

type categoryStats struct {
	txnType model.TransactionType
	txns    []model.Transaction
}

// categoryHistory groups historical transactions by category in first-seen order.
type categoryHistory struct {
	byCategory map[string]*categoryStats
	order      []string
}

func aggregateHistory(txns []model.Transaction) *categoryHistory {
	h := &categoryHistory{byCategory: make(map[string]*categoryStats)}
	for _, txn := range txns {
		stats, ok := h.byCategory[txn.Category]
		if !ok {
			stats = &categoryStats{txnType: txn.Type}
			h.byCategory[txn.Category] = stats
			h.order = append(h.order, txn.Category)
		}
		stats.txns = append(stats.txns, txn)
	}
	return h
}

// average is the arithmetic mean over every transaction in the category.
func (c *categoryStats) average() float64 {
	return stat.Mean(amounts(c.txns), nil)
}

// trend compares the mean of the later half of the category's transactions
// to the earlier half, in date order.
func (c *categoryStats) trend() model.Trend {
	return detectTrend(c.txns)
}

func detectTrend(txns []model.Transaction) model.Trend {
	if len(txns) < minTrendTransactions {
		return model.TrendStable
	}

	ordered := make([]model.Transaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	values := amounts(ordered)
	mid := len(values) / 2
	firstAvg := stat.Mean(values[:mid], nil)
	secondAvg := stat.Mean(values[mid:], nil)

	if firstAvg == 0 {
		if secondAvg > 0 {
			return model.TrendIncreasing
		}
		return model.TrendStable
	}

	change := (secondAvg - firstAvg) / firstAvg * 100
	switch {
	case change > trendThresholdPct:
		return model.TrendIncreasing
	case change < -trendThresholdPct:
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}

func amounts(txns []model.Transaction) []float64 {
	values := make([]float64, len(txns))
	for i, txn := range txns {
		values[i] = txn.Amount
	}
	return values
}

// recurringTotals sums monthly-equivalent recurring amounts per category.
type recurringTotals struct {
	byCategory map[string]float64
	types      map[string]model.TransactionType
	order      []string
}

func aggregateRecurring(defs []model.RecurringTransaction) *recurringTotals {
	r := &recurringTotals{
		byCategory: make(map[string]float64),
		types:      make(map[string]model.TransactionType),
	}
	for _, def := range defs {
		if _, ok := r.types[def.Category]; !ok {
			r.types[def.Category] = def.Type
			r.order = append(r.order, def.Category)
		}
		r.byCategory[def.Category] += def.MonthlyAmount()
	}
	return r
}
