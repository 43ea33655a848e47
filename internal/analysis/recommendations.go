package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/model"
)

var priorityRank = map[string]int{"high": 0, "medium": 1, "low": 2}

// GenerateRecommendations turns the detected anomalies and trends into
// actionable suggestions. It runs even when both inputs are empty, as long
// as a company summary exists for the day.
func (a *Analyzer) GenerateRecommendations(ctx context.Context, date string, anomalies []model.Anomaly, trends []model.TrendInsight, company *model.CompanyDailySummary) ([]model.Recommendation, error) {
	if company == nil {
		a.log.WithField("date", date).Warn("no company summary, skipping recommendations")
		return nil, nil
	}

	prompt := buildRecommendationsPrompt(date, anomalies, trends, company)

	text, err := a.llm.Complete(ctx, prompt, recommendationTemperature)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	recommendations := parseRecommendations(text, a.log)
	sort.SliceStable(recommendations, func(i, j int) bool {
		return rankPriority(recommendations[i].Priority) < rankPriority(recommendations[j].Priority)
	})

	a.log.WithFields(logrus.Fields{
		"date":                 date,
		"recommendation_count": len(recommendations),
	}).Info("recommendation generation complete")

	return recommendations, nil
}

func rankPriority(p string) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank) + 1
}

func buildRecommendationsPrompt(date string, anomalies []model.Anomaly, trends []model.TrendInsight, company *model.CompanyDailySummary) string {
	anomaliesBlock := "No anomalies detected"
	if len(anomalies) > 0 {
		b, _ := json.MarshalIndent(anomalies, "", "  ")
		anomaliesBlock = string(b)
	}
	trendsBlock := "No specific trends identified"
	if len(trends) > 0 {
		b, _ := json.MarshalIndent(trends, "", "  ")
		trendsBlock = string(b)
	}

	bestID, worstID := "N/A", "N/A"
	var bestSales, worstSales float64
	if company.BestStore != nil {
		bestID = company.BestStore.StoreID
		bestSales = company.BestStore.TotalSales
	}
	if company.WorstStore != nil {
		worstID = company.WorstStore.StoreID
		worstSales = company.WorstStore.TotalSales
	}

	return fmt.Sprintf(`Based on the following sales analysis for %s, generate actionable business recommendations.

COMPANY PERFORMANCE SUMMARY:
- Total Sales: $%.2f
- Total Transactions: %d
- Stores Reporting: %d
- Best Store: #%s ($%.2f)
- Worst Store: #%s ($%.2f)

DETECTED ANOMALIES:
%s

IDENTIFIED TRENDS:
%s

Based on this analysis, generate specific, actionable recommendations for:
1. INVENTORY: Stock level adjustments based on product performance
2. MARKETING: Promotional opportunities based on trends
3. OPERATIONS: Store-specific actions for underperforming locations
4. STRATEGY: Longer-term strategic considerations

Return your recommendations as a JSON object with this exact structure:
{
  "recommendations": [
    {
      "priority": "high|medium|low",
      "category": "inventory|marketing|operations|strategy",
      "title": "Brief recommendation title",
      "description": "Detailed explanation with specific actions",
      "affected_stores": ["0001", "0002"],
      "affected_products": ["SKU-001", "SKU-002"],
      "expected_impact": "Brief description of expected outcome"
    }
  ]
}

Prioritize high-impact, immediately actionable recommendations. Return ONLY the JSON object, no other text.`,
		date, company.TotalSales, company.TotalTransactions, company.StoreCount,
		bestID, bestSales, worstID, worstSales,
		anomaliesBlock, trendsBlock)
}
