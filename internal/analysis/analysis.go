// Package analysis runs the three generated-insight tasks: anomaly
// detection, trend analysis, and recommendations. Each task assembles a
// historical comparison, sends one prompt to the language model, and parses
// the JSON it returns. Model output is advisory; a bad response degrades to
// an empty result for that task.
package analysis

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/history"
	"github.com/storepulse/backend/internal/model"
)

const (
	anomalyTemperature        = 0.3
	trendTemperature          = 0.3
	recommendationTemperature = 0.4

	topProductTrendCount = 10
)

// Completer is the single-shot language model call the tasks need.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Historian supplies the lookback data the comparisons are built on.
type Historian interface {
	StoreHistory(ctx context.Context, currentDate string, storeIDs []string) map[string][]model.StoreDailySummary
	CompanyHistory(ctx context.Context, currentDate string) []history.CompanyDay
	ProductHistory(ctx context.Context, currentDate string, skus []string) map[string][]model.ProductDailySummary
}

// Analyzer holds the shared dependencies of the three tasks.
type Analyzer struct {
	llm       Completer
	historian Historian
	log       logrus.FieldLogger
}

func New(llm Completer, historian Historian, log logrus.FieldLogger) *Analyzer {
	return &Analyzer{llm: llm, historian: historian, log: log}
}

func storeIDs(summaries []model.StoreDailySummary) []string {
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.StoreID != "" {
			ids = append(ids, s.StoreID)
		}
	}
	return ids
}
