package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/model"
)

// AggregateCompany rolls all store summaries of a date into the company-wide
// summary. Empty input returns (nil, false): a "no data" sentinel, distinct
// from a summary whose totals happen to be zero. Best and worst store ties
// break on input order, first seen wins.
func AggregateCompany(date string, summaries []model.StoreDailySummary) (*model.CompanyDailySummary, bool) {
	if len(summaries) == 0 {
		return nil, false
	}

	totalSales := decimal.Zero
	totalTransactions := 0
	totalItems := 0
	payments := map[string]decimal.Decimal{}
	storesReported := make([]string, 0, len(summaries))

	best := summaries[0]
	worst := summaries[0]

	for _, s := range summaries {
		totalSales = totalSales.Add(decimal.NewFromFloat(s.TotalSales))
		totalTransactions += s.TransactionCount
		totalItems += s.ItemCount
		storesReported = append(storesReported, s.StoreID)

		if s.TotalSales > best.TotalSales {
			best = s
		}
		if s.TotalSales < worst.TotalSales {
			worst = s
		}

		for method, amount := range s.PaymentBreakdown {
			payments[method] = payments[method].Add(decimal.NewFromFloat(amount))
		}
	}

	avgTransaction := decimal.Zero
	if totalTransactions > 0 {
		avgTransaction = totalSales.Div(decimal.NewFromInt(int64(totalTransactions)))
	}
	avgStoreSales := totalSales.Div(decimal.NewFromInt(int64(len(summaries))))

	breakdown := make(map[string]float64, len(payments))
	for method, amount := range payments {
		breakdown[method] = toCents(amount)
	}

	return &model.CompanyDailySummary{
		Date:              date,
		TotalSales:        toCents(totalSales),
		TotalTransactions: totalTransactions,
		TotalItems:        totalItems,
		StoreCount:        len(summaries),
		StoresReported:    storesReported,
		AvgTransaction:    toCents(avgTransaction),
		AvgStoreSales:     toCents(avgStoreSales),
		BestStore:         &model.StoreRef{StoreID: best.StoreID, TotalSales: best.TotalSales},
		WorstStore:        &model.StoreRef{StoreID: worst.StoreID, TotalSales: worst.TotalSales},
		PaymentBreakdown:  breakdown,
	}, true
}
