package calculator

// GetOptimizationStats simplifies balances and summarizes the resulting plan.
func GetOptimizationStats(balances []Balance) OptimizationStats {
	return StatsFor(SimplifyDebts(balances))
}

// StatsFor summarizes an already simplified plan.
func StatsFor(transactions []Transaction) OptimizationStats {
	stats := OptimizationStats{TotalTransactions: len(transactions)}
	for _, tx := range transactions {
		stats.TotalAmount += tx.Amount
		if tx.Amount > stats.MaxTransaction {
			stats.MaxTransaction = tx.Amount
		}
	}
	return stats
}
