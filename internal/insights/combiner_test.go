package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/model"
)

type fakeWriter struct {
	written []model.Insights
	dates   []string
	err     error
}

func (f *fakeWriter) WriteInsights(_ context.Context, date string, insights model.Insights) error {
	if f.err != nil {
		return f.err
	}
	f.dates = append(f.dates, date)
	f.written = append(f.written, insights)
	return nil
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestCombinePartialFailure(t *testing.T) {
	writer := &fakeWriter{}
	c := New(writer, testLogger())

	got, err := c.Combine(context.Background(), "2024-03-10",
		TaskResult[model.Anomaly]{},
		TaskResult[model.TrendInsight]{Items: []model.TrendInsight{{Type: "store_momentum", Title: "t1"}}},
		TaskResult[model.Recommendation]{Err: errors.New("timeout")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.HasErrors {
		t.Fatal("has_errors should be true when a task failed")
	}
	if len(got.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(got.Errors))
	}
	if got.Errors[0].Task != "generate-recommendations" || got.Errors[0].Error != "timeout" {
		t.Fatalf("unexpected error entry: %+v", got.Errors[0])
	}
	if len(got.Insights.Trends) != 1 || got.Insights.Trends[0].Title != "t1" {
		t.Fatalf("healthy task items lost: %+v", got.Insights.Trends)
	}
	if got.Insights.Anomalies == nil || len(got.Insights.Anomalies) != 0 {
		t.Fatalf("absent task should yield empty list, got %+v", got.Insights.Anomalies)
	}
	if got.Summary.TotalInsights != 1 || got.Summary.TrendCount != 1 {
		t.Fatalf("unexpected summary: %+v", got.Summary)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected one persistence call, got %d", len(writer.written))
	}
}

func TestCombineAllHealthy(t *testing.T) {
	writer := &fakeWriter{}
	c := New(writer, testLogger())

	got, err := c.Combine(context.Background(), "2024-03-10",
		TaskResult[model.Anomaly]{Items: []model.Anomaly{{Type: "historical_low", StoreID: "0003"}}},
		TaskResult[model.TrendInsight]{Items: []model.TrendInsight{{Type: "week_over_week"}}},
		TaskResult[model.Recommendation]{Items: []model.Recommendation{{Priority: "high"}}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HasErrors || len(got.Errors) != 0 {
		t.Fatalf("no task failed but got errors: %+v", got.Errors)
	}
	if got.Summary.TotalInsights != 3 {
		t.Fatalf("total = %d, want 3", got.Summary.TotalInsights)
	}
	if writer.dates[0] != "2024-03-10" {
		t.Fatalf("persisted under date %s", writer.dates[0])
	}
}

func TestCombineNothingToPersist(t *testing.T) {
	writer := &fakeWriter{}
	c := New(writer, testLogger())

	got, err := c.Combine(context.Background(), "2024-03-10",
		TaskResult[model.Anomaly]{},
		TaskResult[model.TrendInsight]{},
		TaskResult[model.Recommendation]{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary.TotalInsights != 0 {
		t.Fatalf("total = %d, want 0", got.Summary.TotalInsights)
	}
	if len(writer.written) != 0 {
		t.Fatal("empty combination must not be persisted")
	}
}

func TestCombineAllFailed(t *testing.T) {
	writer := &fakeWriter{}
	c := New(writer, testLogger())

	got, err := c.Combine(context.Background(), "2024-03-10",
		TaskResult[model.Anomaly]{Err: errors.New("a")},
		TaskResult[model.TrendInsight]{Err: errors.New("b")},
		TaskResult[model.Recommendation]{Err: errors.New("c")},
	)
	if err != nil {
		t.Fatalf("combination must not fail: %v", err)
	}
	if len(got.Errors) != 3 || !got.HasErrors {
		t.Fatalf("expected three error entries: %+v", got.Errors)
	}
	if got.Errors[0].Task != "detect-anomalies" || got.Errors[1].Task != "analyze-trends" {
		t.Fatalf("error entries out of order: %+v", got.Errors)
	}
}

func TestCombineSurfacesPersistenceFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("write failed")}
	c := New(writer, testLogger())

	got, err := c.Combine(context.Background(), "2024-03-10",
		TaskResult[model.Anomaly]{Items: []model.Anomaly{{Type: "sudden_drop"}}},
		TaskResult[model.TrendInsight]{},
		TaskResult[model.Recommendation]{},
	)
	if err == nil {
		t.Fatal("persistence failure must surface")
	}
	if got.Summary.AnomalyCount != 1 {
		t.Fatalf("combined result should still be populated: %+v", got.Summary)
	}
}
