package reports

import "time"

// BreakdownEntry is one slice of a distribution.
type BreakdownEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TrendPoint is one month of case volume.
type TrendPoint struct {
	Period string `json:"period"`
	Opened int    `json:"opened"`
	Closed int    `json:"closed"`
}

// Dashboard aggregates the operational overview in one payload.
type Dashboard struct {
	TotalCases   int              `json:"total_cases"`
	OpenCases    int              `json:"open_cases"`
	ByStatus     []BreakdownEntry `json:"by_status"`
	ByType       []BreakdownEntry `json:"by_type"`
	ByPriority   []BreakdownEntry `json:"by_priority"`
	MonthlyTrend []TrendPoint     `json:"monthly_trend"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
