package model

import "time"

// Trend is the direction a category's spending is moving in.
type Trend string

// Trend constants.
const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// CategoryForecast is the steady-state monthly projection for one category.
type CategoryForecast struct {
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Trend       Trend           `json:"trend"`
	Explanation string          `json:"explanation"`
	Projected   float64         `json:"projected"`
	Historical  float64         `json:"historical"`
	Confidence  float64         `json:"confidence"`
}

// MonthlyForecast is one projected calendar month.
type MonthlyForecast struct {
	Categories   []CategoryForecast `json:"categories"`
	Month        int                `json:"month"`
	Year         int                `json:"year"`
	TotalIncome  float64            `json:"totalIncome"`
	TotalExpense float64            `json:"totalExpense"`
	NetBalance   float64            `json:"netBalance"`
}

// ForecastResult is the output of a forecast run.
type ForecastResult struct {
	GeneratedAt    time.Time         `json:"generatedAt"`
	Methodology    string            `json:"methodology"`
	Months         []MonthlyForecast `json:"months"`
	Insights       []string          `json:"insights"`
	TotalProjected float64           `json:"totalProjected"`
	TotalIncome    float64           `json:"totalIncome"`
	TotalExpense   float64           `json:"totalExpense"`
	Confidence     float64           `json:"confidence"`
}
