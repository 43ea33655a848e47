// Package insights merges the outputs of the three analysis tasks into one
// result for the day. A failed task contributes an error entry instead of
// items; combination always succeeds.
package insights

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/model"
)

// Task names used in error entries.
const (
	TaskDetectAnomalies         = "detect-anomalies"
	TaskAnalyzeTrends           = "analyze-trends"
	TaskGenerateRecommendations = "generate-recommendations"
)

// TaskError records which analysis task failed and why.
type TaskError struct {
	Task  string `json:"task"`
	Error string `json:"error"`
}

// TaskResult is one task's outcome as handed to the combiner. A nil result
// means the task never ran; Err set means it ran and failed.
type TaskResult[T any] struct {
	Items []T
	Err   error
}

// Summary counts the combined items per kind.
type Summary struct {
	AnomalyCount        int `json:"anomaly_count"`
	TrendCount          int `json:"trend_count"`
	RecommendationCount int `json:"recommendation_count"`
	TotalInsights       int `json:"total_insights"`
}

// Combined is the merged analysis output for one date.
type Combined struct {
	Date      string         `json:"date"`
	Insights  model.Insights `json:"insights"`
	Summary   Summary        `json:"summary"`
	HasErrors bool           `json:"has_errors"`
	Errors    []TaskError    `json:"errors,omitempty"`
}

// Writer persists the combined insight items.
type Writer interface {
	WriteInsights(ctx context.Context, date string, insights model.Insights) error
}

// Combiner merges task results and persists the surviving items.
type Combiner struct {
	writer Writer
	log    logrus.FieldLogger
}

func New(writer Writer, log logrus.FieldLogger) *Combiner {
	return &Combiner{writer: writer, log: log}
}

// Combine merges the three task results. Failed tasks are recorded in
// Errors; items from the healthy tasks are kept and persisted when any
// exist. A persistence failure is returned, but the combined result is
// still populated.
func (c *Combiner) Combine(ctx context.Context, date string,
	anomalies TaskResult[model.Anomaly],
	trends TaskResult[model.TrendInsight],
	recommendations TaskResult[model.Recommendation],
) (Combined, error) {
	out := Combined{
		Date: date,
		Insights: model.Insights{
			Anomalies:       []model.Anomaly{},
			Trends:          []model.TrendInsight{},
			Recommendations: []model.Recommendation{},
		},
	}

	if anomalies.Err != nil {
		out.Errors = append(out.Errors, TaskError{Task: TaskDetectAnomalies, Error: anomalies.Err.Error()})
		c.log.WithFields(logrus.Fields{"date": date, "error": anomalies.Err}).Warn("anomaly detection failed")
	} else if anomalies.Items != nil {
		out.Insights.Anomalies = anomalies.Items
	}

	if trends.Err != nil {
		out.Errors = append(out.Errors, TaskError{Task: TaskAnalyzeTrends, Error: trends.Err.Error()})
		c.log.WithFields(logrus.Fields{"date": date, "error": trends.Err}).Warn("trend analysis failed")
	} else if trends.Items != nil {
		out.Insights.Trends = trends.Items
	}

	if recommendations.Err != nil {
		out.Errors = append(out.Errors, TaskError{Task: TaskGenerateRecommendations, Error: recommendations.Err.Error()})
		c.log.WithFields(logrus.Fields{"date": date, "error": recommendations.Err}).Warn("recommendation generation failed")
	} else if recommendations.Items != nil {
		out.Insights.Recommendations = recommendations.Items
	}

	out.HasErrors = len(out.Errors) > 0
	out.Summary = Summary{
		AnomalyCount:        len(out.Insights.Anomalies),
		TrendCount:          len(out.Insights.Trends),
		RecommendationCount: len(out.Insights.Recommendations),
		TotalInsights:       out.Insights.Total(),
	}

	c.log.WithFields(logrus.Fields{
		"date":           date,
		"total_insights": out.Summary.TotalInsights,
		"has_errors":     out.HasErrors,
		"error_count":    len(out.Errors),
	}).Info("insights combined")

	if out.Summary.TotalInsights == 0 {
		return out, nil
	}
	if err := c.writer.WriteInsights(ctx, date, out.Insights); err != nil {
		return out, err
	}
	return out, nil
}
