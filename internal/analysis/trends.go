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

// ProductDay is one historical day inside a product trend row, kept for
// chart rendering downstream.
type ProductDay struct {
	Date      string  `json:"date"`
	UnitsSold int     `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
}

// ProductTrend is one row of the top-products trend table. It is computed
// deterministically, independent of the model call.
type ProductTrend struct {
	SKU                     string       `json:"sku"`
	Name                    string       `json:"name"`
	TodayUnitsSold          int          `json:"today_units_sold"`
	TodayRevenue            float64      `json:"today_revenue"`
	HistoricalAvgUnits      *float64     `json:"historical_avg_units"`
	UnitsVsHistoryPercent   *float64     `json:"units_vs_history_percent"`
	UnitsTrend              string       `json:"units_trend"`
	HistoricalAvgRevenue    *float64     `json:"historical_avg_revenue"`
	RevenueVsHistoryPercent *float64     `json:"revenue_vs_history_percent"`
	RevenueTrend            string       `json:"revenue_trend"`
	DaysOfHistory           int          `json:"days_of_history"`
	DailyHistory            []ProductDay `json:"daily_history"`
	StoresCount             int          `json:"stores_count"`
}

// storePerformance is one store's line in the trends prompt.
type storePerformance struct {
	StoreID           string             `json:"store_id"`
	TodaySales        float64            `json:"today_sales"`
	TodayTransactions int                `json:"today_transactions"`
	HistAvgSales      *float64           `json:"historical_avg_sales"`
	SalesVsHistory    *float64           `json:"sales_vs_history_percent"`
	SalesTrend        string             `json:"sales_trend"`
	HistAvgTrans      *float64           `json:"historical_avg_transactions"`
	TransVsHistory    *float64           `json:"transactions_vs_history_percent"`
	TransTrend        string             `json:"transactions_trend"`
	DaysOfHistory     int                `json:"days_of_history"`
	TopProducts       []model.TopProduct `json:"top_products"`
}

// productTrendSummary is the compact product view embedded in the prompt.
type productTrendSummary struct {
	SKU            string   `json:"sku"`
	Name           string   `json:"name"`
	TodayUnits     int      `json:"today_units"`
	TodayRevenue   float64  `json:"today_revenue"`
	HistAvgUnits   *float64 `json:"historical_avg_units"`
	UnitsVsHistory *float64 `json:"units_vs_history_percent"`
	UnitsTrend     string   `json:"units_trend"`
	DaysOfHistory  int      `json:"days_of_history"`
}

// AnalyzeTrends builds the historical comparison across stores, the
// company, and the top products, then asks the model for notable trends.
// The product trend table is returned alongside the model's trends so
// downstream consumers get it even when the model output is unusable.
func (a *Analyzer) AnalyzeTrends(ctx context.Context, date string, summaries []model.StoreDailySummary, company *model.CompanyDailySummary, products []model.ProductDailySummary) ([]model.TrendInsight, []ProductTrend, error) {
	if len(summaries) == 0 {
		a.log.WithField("date", date).Warn("no store summaries, skipping trend analysis")
		return nil, nil, nil
	}

	topProducts := products
	if len(topProducts) > topProductTrendCount {
		topProducts = topProducts[:topProductTrendCount]
	}
	skus := make([]string, 0, len(topProducts))
	for _, p := range topProducts {
		if p.SKU != "" {
			skus = append(skus, p.SKU)
		}
	}

	storeHistories := a.historian.StoreHistory(ctx, date, storeIDs(summaries))
	companyHistory := a.historian.CompanyHistory(ctx, date)
	productHistories := a.historian.ProductHistory(ctx, date, skus)

	productTrends := BuildProductTrends(topProducts, productHistories)
	performance := buildStorePerformance(summaries, storeHistories)

	prompt := buildTrendsPrompt(date, performance, company, companyHistory, productTrends)

	text, err := a.llm.Complete(ctx, prompt, trendTemperature)
	if err != nil {
		return nil, productTrends, fmt.Errorf("trend analysis: %w", err)
	}

	trends := parseTrends(text, a.log)
	a.log.WithFields(logrus.Fields{
		"date":        date,
		"trend_count": len(trends),
	}).Info("trend analysis complete")

	return trends, productTrends, nil
}

// BuildProductTrends computes the per-product comparison rows from today's
// rollups and their histories.
func BuildProductTrends(products []model.ProductDailySummary, histories map[string][]model.ProductDailySummary) []ProductTrend {
	out := make([]ProductTrend, 0, len(products))
	for _, p := range products {
		records := histories[p.SKU]
		history.SortProductsByDate(records)

		units := make([]float64, len(records))
		revenue := make([]float64, len(records))
		daily := make([]ProductDay, len(records))
		for i, r := range records {
			units[i] = float64(r.UnitsSold)
			revenue[i] = r.Revenue
			daily[i] = ProductDay{Date: r.Date, UnitsSold: r.UnitsSold, Revenue: r.Revenue}
		}

		unitsClass := trend.Classify(float64(p.UnitsSold), units)
		revenueClass := trend.Classify(p.Revenue, revenue)

		out = append(out, ProductTrend{
			SKU:                     p.SKU,
			Name:                    p.Name,
			TodayUnitsSold:          p.UnitsSold,
			TodayRevenue:            p.Revenue,
			HistoricalAvgUnits:      unitsClass.Average,
			UnitsVsHistoryPercent:   unitsClass.DeviationPercent,
			UnitsTrend:              unitsClass.Direction,
			HistoricalAvgRevenue:    revenueClass.Average,
			RevenueVsHistoryPercent: revenueClass.DeviationPercent,
			RevenueTrend:            revenueClass.Direction,
			DaysOfHistory:           len(records),
			DailyHistory:            daily,
			StoresCount:             len(p.StoresSoldAt),
		})
	}
	return out
}

func buildStorePerformance(summaries []model.StoreDailySummary, histories map[string][]model.StoreDailySummary) []storePerformance {
	out := make([]storePerformance, 0, len(summaries))
	for _, s := range summaries {
		records := histories[s.StoreID]
		history.SortByDate(records)

		sales := make([]float64, len(records))
		txns := make([]float64, len(records))
		for i, r := range records {
			sales[i] = r.TotalSales
			txns[i] = float64(r.TransactionCount)
		}

		salesClass := trend.Classify(s.TotalSales, sales)
		txnClass := trend.Classify(float64(s.TransactionCount), txns)

		top := s.TopProducts
		if len(top) > 3 {
			top = top[:3]
		}

		out = append(out, storePerformance{
			StoreID:           s.StoreID,
			TodaySales:        s.TotalSales,
			TodayTransactions: s.TransactionCount,
			HistAvgSales:      salesClass.Average,
			SalesVsHistory:    salesClass.DeviationPercent,
			SalesTrend:        salesClass.Direction,
			HistAvgTrans:      txnClass.Average,
			TransVsHistory:    txnClass.DeviationPercent,
			TransTrend:        txnClass.Direction,
			DaysOfHistory:     len(records),
			TopProducts:       top,
		})
	}
	return out
}

func buildTrendsPrompt(date string, performance []storePerformance, company *model.CompanyDailySummary, companyHistory []history.CompanyDay, productTrends []ProductTrend) string {
	summaries := make([]productTrendSummary, 0, len(productTrends))
	for _, p := range productTrends {
		summaries = append(summaries, productTrendSummary{
			SKU:            p.SKU,
			Name:           p.Name,
			TodayUnits:     p.TodayUnitsSold,
			TodayRevenue:   p.TodayRevenue,
			HistAvgUnits:   p.HistoricalAvgUnits,
			UnitsVsHistory: p.UnitsVsHistoryPercent,
			UnitsTrend:     p.UnitsTrend,
			DaysOfHistory:  p.DaysOfHistory,
		})
	}

	var totalSales, avgTransaction float64
	var totalTransactions, storeCount int
	var payments map[string]float64
	if company != nil {
		totalSales = company.TotalSales
		totalTransactions = company.TotalTransactions
		storeCount = company.StoreCount
		avgTransaction = company.AvgTransaction
		payments = company.PaymentBreakdown
	}

	histSales := make([]float64, len(companyHistory))
	histTrans := make([]float64, len(companyHistory))
	for i, d := range companyHistory {
		histSales[i] = d.TotalSales
		histTrans[i] = float64(d.TotalTransactions)
	}
	companySales := trend.Classify(totalSales, histSales)
	companyTrans := trend.Classify(float64(totalTransactions), histTrans)

	historyJSON, _ := json.MarshalIndent(companyHistory, "", "  ")
	productsJSON, _ := json.MarshalIndent(summaries, "", "  ")
	performanceJSON, _ := json.MarshalIndent(performance, "", "  ")
	paymentsJSON, _ := json.MarshalIndent(payments, "", "  ")

	return fmt.Sprintf(`Analyze the following sales data for %s and identify notable trends by comparing against the last %d days of historical data.

TODAY'S COMPANY SUMMARY WITH HISTORICAL COMPARISON:
- Total Sales: $%.2f
- Historical Avg Sales: $%s
- Sales vs History: %s%%
- Sales Trend Direction: %s
- Total Transactions: %d
- Historical Avg Transactions: %s
- Transactions vs History: %s%%
- Stores Reporting: %d
- Average Transaction: $%.2f

HISTORICAL COMPANY PERFORMANCE (Last %d days):
%s

TOP PRODUCTS WITH HISTORICAL TRENDS:
%s

STORE PERFORMANCE WITH HISTORICAL COMPARISON:
%s

PAYMENT BREAKDOWN TODAY:
%s

Identify trends in the following categories:
1. WEEK-OVER-WEEK TRENDS: How is overall performance trending compared to the past week?
2. STORE MOMENTUM: Which stores are showing consistent improvement or decline over time?
3. PRODUCT TRENDS: Which products are rising/falling in popularity? Identify hot sellers and declining products based on historical comparison.
4. SALES VELOCITY: Is the business accelerating, stable, or slowing?
5. PAYMENT PREFERENCES: Notable payment method usage patterns

IMPORTANT: Focus on HISTORICAL TRENDS and patterns over time, not just single-day observations.
Pay special attention to products showing significant changes vs their historical averages.

Return your analysis as a JSON object with this exact structure:
{
  "trends": [
    {
      "type": "week_over_week|store_momentum|product_trend|sales_velocity|payment_trend",
      "title": "Brief trend title",
      "description": "Detailed explanation including historical context",
      "affected_items": ["list", "of", "affected", "skus", "or", "store_ids"],
      "significance": "high|medium|low",
      "trend_direction": "improving|declining|stable",
      "metric_change_percent": 15.5
    }
  ]
}

Focus on actionable insights based on historical patterns. Return ONLY the JSON object, no other text.`,
		date, history.DefaultLookbackDays,
		totalSales, formatPtr(companySales.Average), formatPtr(companySales.DeviationPercent), companySales.Direction,
		totalTransactions, formatPtr(companyTrans.Average), formatPtr(companyTrans.DeviationPercent),
		storeCount, avgTransaction,
		len(companyHistory), historyJSON, productsJSON, performanceJSON, paymentsJSON)
}

func formatPtr(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}
