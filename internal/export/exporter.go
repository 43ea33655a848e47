package export

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/model"
)

const dateLayout = "2006-01-02"

// DefaultExportDays is the default size of the exported date range.
const DefaultExportDays = 30

// Reader is the slice of the operational store the exporter reads from.
type Reader interface {
	SummariesByDate(ctx context.Context, date string) ([]model.StoreDailySummary, error)
	ProductsByDate(ctx context.Context, date string) ([]model.ProductDailySummary, error)
	InsightsByDate(ctx context.Context, date string) (model.Insights, error)
}

// Counts reports how many rows of each kind an export run moved.
type Counts struct {
	StoreSummaries   int `json:"store_summaries"`
	ProductSummaries int `json:"product_summaries"`
	Insights         int `json:"insights"`
	Days             int `json:"days"`
}

// Exporter copies a trailing date range from the operational store into the
// warehouse, one day at a time.
type Exporter struct {
	reader    Reader
	warehouse Warehouse
	log       logrus.FieldLogger
}

func NewExporter(reader Reader, warehouse Warehouse, log logrus.FieldLogger) *Exporter {
	return &Exporter{reader: reader, warehouse: warehouse, log: log}
}

// Run exports the range ending at endDate, inclusive, covering days days.
// Days <= 0 selects the default of 30. A failed day aborts the run; already
// exported days are safe to re-export since the warehouse tables key on
// date.
func (e *Exporter) Run(ctx context.Context, endDate string, days int) (Counts, error) {
	if days <= 0 {
		days = DefaultExportDays
	}

	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return Counts{}, fmt.Errorf("export: bad end date %q: %w", endDate, err)
	}

	counts := Counts{}
	for i := days - 1; i >= 0; i-- {
		date := end.AddDate(0, 0, -i).Format(dateLayout)
		if err := e.exportDay(ctx, date, &counts); err != nil {
			return counts, fmt.Errorf("export: day %s: %w", date, err)
		}
		counts.Days++
	}

	e.log.WithFields(logrus.Fields{
		"end_date":          endDate,
		"days":              counts.Days,
		"store_summaries":   counts.StoreSummaries,
		"product_summaries": counts.ProductSummaries,
		"insights":          counts.Insights,
	}).Info("export complete")

	return counts, nil
}

func (e *Exporter) exportDay(ctx context.Context, date string, counts *Counts) error {
	summaries, err := e.reader.SummariesByDate(ctx, date)
	if err != nil {
		return err
	}
	if err := e.warehouse.WriteStoreSummaries(ctx, summaries); err != nil {
		return err
	}
	counts.StoreSummaries += len(summaries)

	products, err := e.reader.ProductsByDate(ctx, date)
	if err != nil {
		return err
	}
	if err := e.warehouse.WriteProductSummaries(ctx, products); err != nil {
		return err
	}
	counts.ProductSummaries += len(products)

	insights, err := e.reader.InsightsByDate(ctx, date)
	if err != nil {
		return err
	}
	rows := flattenInsights(date, insights)
	if err := e.warehouse.WriteInsightRows(ctx, rows); err != nil {
		return err
	}
	counts.Insights += len(rows)

	return nil
}

func flattenInsights(date string, insights model.Insights) []InsightRow {
	rows := make([]InsightRow, 0, insights.Total())
	for _, a := range insights.Anomalies {
		rows = append(rows, InsightRow{
			Date:        date,
			InsightType: model.InsightAnomaly,
			Severity:    a.Severity,
			StoreID:     a.StoreID,
			Title:       a.Title,
			Description: a.Description,
		})
	}
	for _, t := range insights.Trends {
		rows = append(rows, InsightRow{
			Date:        date,
			InsightType: model.InsightTrend,
			Severity:    t.Significance,
			Title:       t.Title,
			Description: t.Description,
		})
	}
	for _, r := range insights.Recommendations {
		rows = append(rows, InsightRow{
			Date:        date,
			InsightType: model.InsightRecommendation,
			Severity:    r.Priority,
			Title:       r.Title,
			Description: r.Description,
		})
	}
	return rows
}
