package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/history"
	"github.com/storepulse/backend/internal/model"
	"github.com/storepulse/backend/internal/trend"
)

// storeComparison is one store's today-vs-history line in the anomaly
// prompt. Pointer fields stay null when the store has no history.
type storeComparison struct {
	StoreID             string   `json:"store_id"`
	TodaySales          float64  `json:"today_sales"`
	TodayTransactions   int      `json:"today_transactions"`
	AvgTransaction      float64  `json:"avg_transaction"`
	HistAvgSales        *float64 `json:"historical_avg_sales"`
	HistAvgTransactions *float64 `json:"historical_avg_transactions"`
	SalesVsHistory      *float64 `json:"sales_vs_history_percent"`
	TransVsHistory      *float64 `json:"transactions_vs_history_percent"`
	DaysOfHistory       int      `json:"days_of_historical_data"`
}

// DetectAnomalies compares each store's day against its own lookback
// average and asks the model to flag outliers. When no store has enough
// history for a meaningful comparison the task is skipped and returns no
// anomalies.
func (a *Analyzer) DetectAnomalies(ctx context.Context, date string, summaries []model.StoreDailySummary, company *model.CompanyDailySummary) ([]model.Anomaly, error) {
	if len(summaries) == 0 {
		a.log.WithField("date", date).Warn("no store summaries, skipping anomaly detection")
		return nil, nil
	}

	histories := a.historian.StoreHistory(ctx, date, storeIDs(summaries))

	comparisons := make([]storeComparison, 0, len(summaries))
	withHistory := 0
	for _, s := range summaries {
		records := histories[s.StoreID]
		history.SortByDate(records)
		if len(records) >= trend.MinHistoryDays {
			withHistory++
		}

		sales := make([]float64, len(records))
		txns := make([]float64, len(records))
		for i, r := range records {
			sales[i] = r.TotalSales
			txns[i] = float64(r.TransactionCount)
		}

		salesClass := trend.Classify(s.TotalSales, sales)
		txnClass := trend.Classify(float64(s.TransactionCount), txns)

		comparisons = append(comparisons, storeComparison{
			StoreID:             s.StoreID,
			TodaySales:          s.TotalSales,
			TodayTransactions:   s.TransactionCount,
			AvgTransaction:      s.AvgTransaction,
			HistAvgSales:        salesClass.Average,
			HistAvgTransactions: txnClass.Average,
			SalesVsHistory:      salesClass.DeviationPercent,
			TransVsHistory:      txnClass.DeviationPercent,
			DaysOfHistory:       len(records),
		})
	}

	if withHistory == 0 {
		a.log.WithFields(logrus.Fields{
			"date":        date,
			"store_count": len(summaries),
			"min_days":    trend.MinHistoryDays,
		}).Info("no store has enough history, skipping anomaly detection")
		return nil, nil
	}

	prompt := buildAnomalyPrompt(date, comparisons, company)

	text, err := a.llm.Complete(ctx, prompt, anomalyTemperature)
	if err != nil {
		return nil, fmt.Errorf("anomaly detection: %w", err)
	}

	anomalies := parseAnomalies(text, a.log)
	a.log.WithFields(logrus.Fields{
		"date":                date,
		"anomaly_count":       len(anomalies),
		"stores_with_history": withHistory,
	}).Info("anomaly detection complete")

	return anomalies, nil
}

func buildAnomalyPrompt(date string, comparisons []storeComparison, company *model.CompanyDailySummary) string {
	storeData, _ := json.MarshalIndent(comparisons, "", "  ")

	var totalSales, avgTransaction float64
	var totalTransactions, storeCount int
	if company != nil {
		totalSales = company.TotalSales
		totalTransactions = company.TotalTransactions
		storeCount = company.StoreCount
		avgTransaction = company.AvgTransaction
	}

	return fmt.Sprintf(`Analyze the following store sales data for %s and identify anomalies by comparing today's performance against the last %d days.

TODAY'S STORE DATA WITH HISTORICAL COMPARISON:
%s

TODAY'S COMPANY TOTALS:
- Total Sales: $%.2f
- Total Transactions: %d
- Stores Reporting: %d
- Average Transaction: $%.2f

Identify anomalies in the following categories:
1. HISTORICAL DEVIATION: Stores performing significantly different from their own historical average (>25%% deviation)
2. SUDDEN CHANGES: Dramatic increases or decreases compared to recent history
3. PEER COMPARISON: Stores significantly under/over-performing compared to other stores today
4. CONSISTENCY ISSUES: Stores with erratic patterns (if historical data shows high variance)

IMPORTANT: Focus on deviations FROM HISTORICAL AVERAGES, not just peer comparison.

Return your analysis as a JSON object with this exact structure:
{
  "anomalies": [
    {
      "type": "historical_low|historical_high|sudden_drop|sudden_spike|peer_outlier",
      "severity": "info|warning|critical",
      "store_id": "0001",
      "title": "Brief description",
      "description": "Detailed explanation including historical context",
      "metric_value": 1234.56,
      "historical_average": 2000.00,
      "deviation_percent": -38.3
    }
  ]
}

Severity guide:
- critical: >50%% deviation from historical average OR sudden complete drop
- warning: 25-50%% deviation from historical average
- info: Notable but not concerning patterns

Only include actual anomalies. If no anomalies found, return an empty anomalies array.
Return ONLY the JSON object, no other text.`,
		date, history.DefaultLookbackDays, storeData,
		totalSales, totalTransactions, storeCount, avgTransaction)
}
