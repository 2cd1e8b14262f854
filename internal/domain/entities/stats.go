package entities

// MonthlyCount compares a metric between the current and previous calendar month.
type MonthlyCount struct {
	Current          int `json:"current"`
	Previous         int `json:"previous"`
	PercentageChange int `json:"percentage_change"`
}

// DashboardStats summarises an institution's activity.
type DashboardStats struct {
	InstitutionID string       `json:"institution_id"`
	Interactions  MonthlyCount `json:"interactions"`
	Services      MonthlyCount `json:"services"`
	Categories    MonthlyCount `json:"categories"`
}

// MonthlySeries counts one metric per calendar month of a year, January first.
type MonthlySeries struct {
	InstitutionID string   `json:"institution_id"`
	Year          int      `json:"year"`
	Language      string   `json:"language"`
	Months        []string `json:"months"`
	Counts        []int    `json:"counts"`
}
