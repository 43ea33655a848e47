// Package api serves the read endpoints the dashboard consumes: daily
// analytics, computed trends, stored insights, and upload status.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/analysis"
	"github.com/storepulse/backend/internal/gate"
	"github.com/storepulse/backend/internal/history"
	"github.com/storepulse/backend/internal/model"
	"github.com/storepulse/backend/internal/store"
	"github.com/storepulse/backend/internal/trend"
)

// Reader is the slice of the sales store the API reads from.
type Reader interface {
	SummariesByDate(ctx context.Context, date string) ([]model.StoreDailySummary, error)
	CompanySummaryByDate(ctx context.Context, date string) (model.CompanyDailySummary, error)
	ProductsByDate(ctx context.Context, date string) ([]model.ProductDailySummary, error)
	InsightsByDate(ctx context.Context, date string) (model.Insights, error)
}

// Checker reports upload completeness for a date.
type Checker interface {
	Check(ctx context.Context, date string) (gate.Result, error)
}

// Historian supplies lookback series for the computed trend endpoint.
type Historian interface {
	StoreHistory(ctx context.Context, currentDate string, storeIDs []string) map[string][]model.StoreDailySummary
	ProductHistory(ctx context.Context, currentDate string, skus []string) map[string][]model.ProductDailySummary
}

// AnalyticsResponse is the daily dashboard payload.
type AnalyticsResponse struct {
	Date           string                       `json:"date"`
	Company        *model.CompanyDailySummary   `json:"company,omitempty"`
	StoreSummaries []model.StoreDailySummary    `json:"store_summaries"`
	TopProducts    []model.ProductDailySummary  `json:"top_products"`
	Insights       model.Insights               `json:"insights"`
}

// StoreTrend is one store's computed comparison row.
type StoreTrend struct {
	StoreID          string   `json:"store_id"`
	TodaySales       float64  `json:"today_sales"`
	HistoricalAvg    *float64 `json:"historical_avg_sales"`
	DeviationPercent *float64 `json:"sales_vs_history_percent"`
	Direction        string   `json:"sales_trend"`
	DaysOfHistory    int      `json:"days_of_history"`
}

// TrendsResponse carries the computed trend tables for a date.
type TrendsResponse struct {
	Date     string                  `json:"date"`
	Stores   []StoreTrend            `json:"stores"`
	Products []analysis.ProductTrend `json:"products"`
}

// Service assembles the read responses.
type Service struct {
	reader    Reader
	checker   Checker
	historian Historian
	log       logrus.FieldLogger
}

func NewService(reader Reader, checker Checker, historian Historian, log logrus.FieldLogger) *Service {
	return &Service{reader: reader, checker: checker, historian: historian, log: log}
}

// Analytics returns the stored rollups and insights for a date. A missing
// company summary leaves the field null; everything else is served as-is.
func (s *Service) Analytics(ctx context.Context, date string) (AnalyticsResponse, error) {
	resp := AnalyticsResponse{Date: date}

	summaries, err := s.reader.SummariesByDate(ctx, date)
	if err != nil {
		return resp, fmt.Errorf("load store summaries: %w", err)
	}
	resp.StoreSummaries = summaries

	company, err := s.reader.CompanySummaryByDate(ctx, date)
	switch {
	case err == nil:
		resp.Company = &company
	case errors.Is(err, store.ErrNotFound):
		// day not closed yet
	default:
		return resp, fmt.Errorf("load company summary: %w", err)
	}

	products, err := s.reader.ProductsByDate(ctx, date)
	if err != nil {
		return resp, fmt.Errorf("load products: %w", err)
	}
	resp.TopProducts = products

	insights, err := s.reader.InsightsByDate(ctx, date)
	if err != nil {
		return resp, fmt.Errorf("load insights: %w", err)
	}
	resp.Insights = insights

	return resp, nil
}

// Trends computes the comparison tables for a date from the stored rollups
// and their lookback series.
func (s *Service) Trends(ctx context.Context, date string) (TrendsResponse, error) {
	resp := TrendsResponse{Date: date, Stores: []StoreTrend{}, Products: []analysis.ProductTrend{}}

	summaries, err := s.reader.SummariesByDate(ctx, date)
	if err != nil {
		return resp, fmt.Errorf("load store summaries: %w", err)
	}

	ids := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		ids = append(ids, sum.StoreID)
	}
	storeHistories := s.historian.StoreHistory(ctx, date, ids)

	for _, sum := range summaries {
		records := storeHistories[sum.StoreID]
		history.SortByDate(records)
		sales := make([]float64, len(records))
		for i, r := range records {
			sales[i] = r.TotalSales
		}
		class := trend.Classify(sum.TotalSales, sales)
		resp.Stores = append(resp.Stores, StoreTrend{
			StoreID:          sum.StoreID,
			TodaySales:       sum.TotalSales,
			HistoricalAvg:    class.Average,
			DeviationPercent: class.DeviationPercent,
			Direction:        class.Direction,
			DaysOfHistory:    len(records),
		})
	}

	products, err := s.reader.ProductsByDate(ctx, date)
	if err != nil {
		return resp, fmt.Errorf("load products: %w", err)
	}
	skus := make([]string, 0, len(products))
	for _, p := range products {
		skus = append(skus, p.SKU)
	}
	resp.Products = analysis.BuildProductTrends(products, s.historian.ProductHistory(ctx, date, skus))

	return resp, nil
}

// Insights returns the stored insight lists for a date.
func (s *Service) Insights(ctx context.Context, date string) (model.Insights, error) {
	return s.reader.InsightsByDate(ctx, date)
}

// Status reports upload completeness for a date.
func (s *Service) Status(ctx context.Context, date string) (gate.Result, error) {
	return s.checker.Check(ctx, date)
}
