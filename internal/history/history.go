// Package history retrieves the trailing N days of daily summaries for
// stores, the company, and products. Each per-date retrieval is fault
// isolated: a failed day is logged and contributes nothing, it never aborts
// the remaining days.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/storepulse/backend/internal/model"
)

// DefaultLookbackDays is the default historical comparison window.
const DefaultLookbackDays = 7

const dateLayout = "2006-01-02"

// Reader is the slice of the sales store the engine needs.
type Reader interface {
	SummariesByDate(ctx context.Context, date string) ([]model.StoreDailySummary, error)
	ProductHistory(ctx context.Context, sku string) ([]model.ProductDailySummary, error)
}

// CompanyDay is one derived day of company-wide history, summed from the
// store rows of that date.
type CompanyDay struct {
	Date              string  `json:"date"`
	TotalSales        float64 `json:"total_sales"`
	TotalTransactions int     `json:"total_transactions"`
	StoreCount        int     `json:"store_count"`
	AvgTransaction    float64 `json:"avg_transaction"`
}

// Engine issues the historical retrievals. Retrievals for different days
// run concurrently; results carry no ordering guarantee, callers sort by
// date before use.
type Engine struct {
	reader Reader
	days   int
	log    logrus.FieldLogger
}

// New creates an engine with the given lookback window; days <= 0 selects
// the default of 7.
func New(reader Reader, days int, log logrus.FieldLogger) *Engine {
	if days <= 0 {
		days = DefaultLookbackDays
	}
	return &Engine{reader: reader, days: days, log: log}
}

// Window returns the lookback dates strictly before the current date,
// most recent first. An unparseable date yields an empty window.
func (e *Engine) Window(currentDate string) []string {
	current, err := time.Parse(dateLayout, currentDate)
	if err != nil {
		e.log.WithField("date", currentDate).Warn("unparseable current date, empty window")
		return nil
	}
	dates := make([]string, 0, e.days)
	for i := 1; i <= e.days; i++ {
		dates = append(dates, current.AddDate(0, 0, -i).Format(dateLayout))
	}
	return dates
}

// StoreHistory returns, for each requested store, its daily summaries found
// inside the lookback window. Stores with no data map to an empty slice.
func (e *Engine) StoreHistory(ctx context.Context, currentDate string, storeIDs []string) map[string][]model.StoreDailySummary {
	result := make(map[string][]model.StoreDailySummary, len(storeIDs))
	for _, id := range storeIDs {
		result[id] = []model.StoreDailySummary{}
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, date := range e.Window(currentDate) {
		g.Go(func() error {
			summaries, err := e.reader.SummariesByDate(ctx, date)
			if err != nil {
				e.log.WithFields(logrus.Fields{"date": date, "error": err}).
					Warn("historical day retrieval failed, treating as empty")
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, s := range summaries {
				if _, wanted := result[s.StoreID]; wanted {
					result[s.StoreID] = append(result[s.StoreID], s)
				}
			}
			return nil
		})
	}
	_ = g.Wait() // retrieval failures never surface as errors

	return result
}

// CompanyHistory derives the company-wide day records of the lookback
// window by summing each day's store summaries. Days with no data are
// omitted. The result is sorted by date ascending.
func (e *Engine) CompanyHistory(ctx context.Context, currentDate string) []CompanyDay {
	var mu sync.Mutex
	days := []CompanyDay{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, date := range e.Window(currentDate) {
		g.Go(func() error {
			summaries, err := e.reader.SummariesByDate(ctx, date)
			if err != nil {
				e.log.WithFields(logrus.Fields{"date": date, "error": err}).
					Warn("company history retrieval failed, treating as empty")
				return nil
			}
			if len(summaries) == 0 {
				return nil
			}

			day := CompanyDay{Date: date, StoreCount: len(summaries)}
			for _, s := range summaries {
				day.TotalSales += s.TotalSales
				day.TotalTransactions += s.TransactionCount
			}
			if day.TotalTransactions > 0 {
				day.AvgTransaction = day.TotalSales / float64(day.TotalTransactions)
			}

			mu.Lock()
			days = append(days, day)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// ProductHistory returns, for each requested sku, its daily rollups that
// fall inside the lookback window. A failed sku retrieval contributes an
// empty slice.
func (e *Engine) ProductHistory(ctx context.Context, currentDate string, skus []string) map[string][]model.ProductDailySummary {
	window := map[string]struct{}{}
	for _, d := range e.Window(currentDate) {
		window[d] = struct{}{}
	}

	result := make(map[string][]model.ProductDailySummary, len(skus))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, sku := range skus {
		mu.Lock()
		result[sku] = []model.ProductDailySummary{}
		mu.Unlock()

		g.Go(func() error {
			records, err := e.reader.ProductHistory(ctx, sku)
			if err != nil {
				e.log.WithFields(logrus.Fields{"sku": sku, "error": err}).
					Warn("product history retrieval failed, treating as empty")
				return nil
			}
			kept := []model.ProductDailySummary{}
			for _, r := range records {
				if _, in := window[r.Date]; in {
					kept = append(kept, r)
				}
			}
			mu.Lock()
			result[sku] = kept
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// SortByDate orders store summaries chronologically; retrieval order is not
// guaranteed, so consumers call this before feeding series to the
// classifier.
func SortByDate(summaries []model.StoreDailySummary) {
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Date < summaries[j].Date })
}

// SortProductsByDate orders product rollups chronologically.
func SortProductsByDate(products []model.ProductDailySummary) {
	sort.Slice(products, func(i, j int) bool { return products[i].Date < products[j].Date })
}
