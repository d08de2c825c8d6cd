package usage

// BudgetReader provides read-only access to the embedding token budget.
// Limits of 0 mean unlimited; Used counters reset with the period.
type BudgetReader interface {
	DailyLimit() int64
	MonthlyLimit() int64
	DailyUsed() int64
	MonthlyUsed() int64
	RemainingDaily() int64
	RemainingMonthly() int64
}
