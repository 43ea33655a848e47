// Package pipeline sequences the daily processing stages: per-upload
// aggregation and persistence, the completeness gate, and once every store
// has reported, the company and product rollups, the analysis fan-out, and
// the daily report.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/storepulse/backend/internal/analysis"
	"github.com/storepulse/backend/internal/gate"
	"github.com/storepulse/backend/internal/insights"
	"github.com/storepulse/backend/internal/metrics"
	"github.com/storepulse/backend/internal/model"
	"github.com/storepulse/backend/internal/report"
)

// ErrRejected marks an upload that must not be retried: the payload itself
// is bad, redelivery cannot fix it.
var ErrRejected = errors.New("upload rejected")

// UploadEvent is the message produced when a store's daily file has been
// received and decoded.
type UploadEvent struct {
	StoreID   string           `json:"store_id"`
	Date      string           `json:"date"`
	SourceRef string           `json:"source_ref"`
	LineItems []model.LineItem `json:"line_items"`
}

// Store is the persistence surface the processor drives.
type Store interface {
	WriteDailySummary(ctx context.Context, summary model.StoreDailySummary, sourceKey string) error
	WriteCompanySummary(ctx context.Context, summary model.CompanyDailySummary) error
	WriteProductSummaries(ctx context.Context, date string, products []model.ProductDailySummary) error
	SummariesByDate(ctx context.Context, date string) ([]model.StoreDailySummary, error)
}

// Gate reports whether every expected store has uploaded for a date.
type Gate interface {
	Check(ctx context.Context, date string) (gate.Result, error)
}

// Analysis runs the three generated-insight tasks.
type Analysis interface {
	DetectAnomalies(ctx context.Context, date string, summaries []model.StoreDailySummary, company *model.CompanyDailySummary) ([]model.Anomaly, error)
	AnalyzeTrends(ctx context.Context, date string, summaries []model.StoreDailySummary, company *model.CompanyDailySummary, products []model.ProductDailySummary) ([]model.TrendInsight, []analysis.ProductTrend, error)
	GenerateRecommendations(ctx context.Context, date string, anomalies []model.Anomaly, trends []model.TrendInsight, company *model.CompanyDailySummary) ([]model.Recommendation, error)
}

// Combiner merges analysis task results and persists the items.
type Combiner interface {
	Combine(ctx context.Context, date string,
		anomalies insights.TaskResult[model.Anomaly],
		trends insights.TaskResult[model.TrendInsight],
		recommendations insights.TaskResult[model.Recommendation],
	) (insights.Combined, error)
}

// Publisher delivers the rendered daily report.
type Publisher interface {
	Publish(r report.Report) error
}

// Processor runs the stage sequence for upload events.
type Processor struct {
	aggregator *metrics.Aggregator
	store      Store
	gate       Gate
	analysis   Analysis
	combiner   Combiner
	publisher  Publisher
	log        logrus.FieldLogger
}

func NewProcessor(aggregator *metrics.Aggregator, store Store, g Gate, a Analysis, c Combiner, p Publisher, log logrus.FieldLogger) *Processor {
	return &Processor{
		aggregator: aggregator,
		store:      store,
		gate:       g,
		analysis:   a,
		combiner:   c,
		publisher:  p,
		log:        log,
	}
}

// ProcessUpload aggregates one store's day, persists it, and checks the
// gate. When the upload completes the roster the day-close sequence runs.
// A malformed payload returns an error wrapping ErrRejected.
func (p *Processor) ProcessUpload(ctx context.Context, event UploadEvent) error {
	if event.StoreID == "" || event.Date == "" {
		return fmt.Errorf("%w: missing store_id or date", ErrRejected)
	}

	summary, err := p.aggregator.Summarize(event.StoreID, event.Date, event.LineItems)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}

	if err := p.store.WriteDailySummary(ctx, summary, event.SourceRef); err != nil {
		return fmt.Errorf("persist summary for store %s: %w", event.StoreID, err)
	}

	result, err := p.gate.Check(ctx, event.Date)
	if err != nil {
		return fmt.Errorf("completeness check for %s: %w", event.Date, err)
	}

	p.log.WithFields(logrus.Fields{
		"store_id": event.StoreID,
		"date":     event.Date,
		"reported": result.TotalReported,
		"expected": result.TotalExpected,
		"all_done": result.AllDone,
	}).Info("upload processed")

	if !result.AllDone {
		return nil
	}
	return p.CompleteDay(ctx, event.Date)
}

// CompleteDay runs the rollups, the analysis fan-out, the combiner, and the
// report for a date on which every store has reported. It is idempotent:
// re-running replaces the rollups and appends a fresh set of insights.
func (p *Processor) CompleteDay(ctx context.Context, date string) error {
	summaries, err := p.store.SummariesByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("load summaries for %s: %w", date, err)
	}

	companyValue, ok := metrics.AggregateCompany(date, summaries)
	var company *model.CompanyDailySummary
	if ok {
		company = companyValue
		if err := p.store.WriteCompanySummary(ctx, *company); err != nil {
			return fmt.Errorf("persist company summary for %s: %w", date, err)
		}
	}

	products := metrics.AggregateProducts(date, summaries)
	if err := p.store.WriteProductSummaries(ctx, date, products); err != nil {
		return fmt.Errorf("persist product summaries for %s: %w", date, err)
	}

	var (
		anomalyResult insights.TaskResult[model.Anomaly]
		trendResult   insights.TaskResult[model.TrendInsight]
		recResult     insights.TaskResult[model.Recommendation]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := p.analysis.DetectAnomalies(gctx, date, summaries, company)
		anomalyResult = taskResult(items, err)
		return nil
	})
	g.Go(func() error {
		items, _, err := p.analysis.AnalyzeTrends(gctx, date, summaries, company, products)
		trendResult = taskResult(items, err)
		return nil
	})
	_ = g.Wait() // branch failures are captured as task errors

	items, err := p.analysis.GenerateRecommendations(ctx, date, anomalyResult.Items, trendResult.Items, company)
	recResult = taskResult(items, err)

	combined, err := p.combiner.Combine(ctx, date, anomalyResult, trendResult, recResult)
	if err != nil {
		return fmt.Errorf("combine insights for %s: %w", date, err)
	}

	daily := report.Format(date, company, products, &combined.Insights)
	if err := p.publisher.Publish(daily); err != nil {
		return fmt.Errorf("publish report for %s: %w", date, err)
	}

	p.log.WithFields(logrus.Fields{
		"date":           date,
		"stores":         len(summaries),
		"products":       len(products),
		"total_insights": combined.Summary.TotalInsights,
		"has_errors":     combined.HasErrors,
	}).Info("day closed")

	return nil
}

func taskResult[T any](items []T, err error) insights.TaskResult[T] {
	if err != nil {
		return insights.TaskResult[T]{Err: err}
	}
	return insights.TaskResult[T]{Items: items}
}
