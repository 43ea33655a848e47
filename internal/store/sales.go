package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/storepulse/backend/internal/keys"
	"github.com/storepulse/backend/internal/model"
)

// StatusProcessed marks an upload tracking record whose file has been fully
// aggregated and persisted.
const StatusProcessed = "processed"

// SalesStore exposes the typed entity operations of the pipeline on top of
// the single-table contract.
type SalesStore struct {
	table Table
	log   logrus.FieldLogger
}

// NewSalesStore wraps a Table with the entity-level operations.
func NewSalesStore(table Table, log logrus.FieldLogger) *SalesStore {
	return &SalesStore{table: table, log: log}
}

type storeSummaryDoc struct {
	keys.Item               `bson:",inline"`
	model.StoreDailySummary `bson:",inline"`
}

type uploadTrackingDoc struct {
	keys.Item                  `bson:",inline"`
	model.UploadTrackingRecord `bson:",inline"`
}

type companySummaryDoc struct {
	keys.Item                 `bson:",inline"`
	model.CompanyDailySummary `bson:",inline"`
}

type productSummaryDoc struct {
	keys.Item                 `bson:",inline"`
	model.ProductDailySummary `bson:",inline"`
}

// WriteDailySummary persists a store's daily summary together with its
// upload tracking record. The two writes are not transactional: if the
// second fails the operation is incomplete and the caller retries the whole
// stage, replacing both records.
func (s *SalesStore) WriteDailySummary(ctx context.Context, summary model.StoreDailySummary, sourceRef string) error {
	now := time.Now().UTC()
	summary.CreatedAt = now

	summaryKey, err := keys.StoreSummary(summary.StoreID, summary.Date)
	if err != nil {
		return err
	}
	trackingKey, err := keys.UploadTracking(summary.Date, summary.StoreID)
	if err != nil {
		return err
	}

	if err := s.table.Put(ctx, summaryKey.PK, summaryKey.SK, storeSummaryDoc{summaryKey, summary}); err != nil {
		return fmt.Errorf("write store summary: %w", err)
	}

	tracking := model.UploadTrackingRecord{
		StoreID:     summary.StoreID,
		Date:        summary.Date,
		UploadedAt:  now,
		SourceRef:   sourceRef,
		RecordCount: summary.RecordCount,
		Status:      StatusProcessed,
		TotalSales:  summary.TotalSales,
	}
	if err := s.table.Put(ctx, trackingKey.PK, trackingKey.SK, uploadTrackingDoc{trackingKey, tracking}); err != nil {
		return fmt.Errorf("write upload tracking: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"store_id": summary.StoreID,
		"date":     summary.Date,
	}).Info("daily summary written")
	return nil
}

// WriteCompanySummary persists the company-wide rollup for a date.
func (s *SalesStore) WriteCompanySummary(ctx context.Context, summary model.CompanyDailySummary) error {
	key, err := keys.CompanySummary(summary.Date)
	if err != nil {
		return err
	}
	if err := s.table.Put(ctx, key.PK, key.SK, companySummaryDoc{key, summary}); err != nil {
		return fmt.Errorf("write company summary: %w", err)
	}
	return nil
}

// WriteProductSummaries persists the per-product rollups for a date, one
// record per sku.
func (s *SalesStore) WriteProductSummaries(ctx context.Context, date string, products []model.ProductDailySummary) error {
	for _, p := range products {
		key, err := keys.ProductSummary(date, p.SKU)
		if err != nil {
			return err
		}
		if err := s.table.Put(ctx, key.PK, key.SK, productSummaryDoc{key, p}); err != nil {
			return fmt.Errorf("write product summary %s: %w", p.SKU, err)
		}
	}
	return nil
}

type anomalyDoc struct {
	keys.Item     `bson:",inline"`
	InsightType   string `bson:"insight_type"`
	Date          string `bson:"date"`
	model.Anomaly `bson:",inline"`
}

type trendDoc struct {
	keys.Item          `bson:",inline"`
	InsightType        string `bson:"insight_type"`
	Date               string `bson:"date"`
	model.TrendInsight `bson:",inline"`
}

type recommendationDoc struct {
	keys.Item            `bson:",inline"`
	InsightType          string `bson:"insight_type"`
	Date                 string `bson:"date"`
	model.Recommendation `bson:",inline"`
}

// WriteInsights persists every individual insight item as its own record,
// keyed by type and a short random id.
func (s *SalesStore) WriteInsights(ctx context.Context, date string, insights model.Insights) error {
	put := func(insightType string, doc any) error {
		key, err := keys.Insight(date, insightType, shortID())
		if err != nil {
			return err
		}
		switch d := doc.(type) {
		case model.Anomaly:
			err = s.table.Put(ctx, key.PK, key.SK, anomalyDoc{key, insightType, date, d})
		case model.TrendInsight:
			err = s.table.Put(ctx, key.PK, key.SK, trendDoc{key, insightType, date, d})
		case model.Recommendation:
			err = s.table.Put(ctx, key.PK, key.SK, recommendationDoc{key, insightType, date, d})
		}
		if err != nil {
			return fmt.Errorf("write %s insight: %w", insightType, err)
		}
		return nil
	}

	for _, a := range insights.Anomalies {
		if err := put(model.InsightAnomaly, a); err != nil {
			return err
		}
	}
	for _, tr := range insights.Trends {
		if err := put(model.InsightTrend, tr); err != nil {
			return err
		}
	}
	for _, r := range insights.Recommendations {
		if err := put(model.InsightRecommendation, r); err != nil {
			return err
		}
	}

	s.log.WithFields(logrus.Fields{
		"date":            date,
		"anomalies":       len(insights.Anomalies),
		"trends":          len(insights.Trends),
		"recommendations": len(insights.Recommendations),
	}).Debug("insights written")
	return nil
}

// ReportedStores returns the ids of stores that have an upload tracking
// record for the date. Pure read, safe to call repeatedly.
func (s *SalesStore) ReportedStores(ctx context.Context, date string) ([]string, error) {
	ids := []string{}
	page := Page{}
	for {
		result, err := s.table.QueryPK(ctx, keys.DatePK(date), keys.UploadSKPrefix(), page)
		if err != nil {
			return nil, fmt.Errorf("query upload tracking: %w", err)
		}
		for _, raw := range result.Items {
			sk, ok := raw.Lookup("sk").StringValueOK()
			if !ok {
				continue
			}
			id, err := keys.UploadStoreID(sk)
			if err != nil {
				s.log.WithField("sk", sk).Warn("skipping unparseable upload tracking key")
				continue
			}
			ids = append(ids, id)
		}
		if result.Next == "" {
			return ids, nil
		}
		page.StartAfter = result.Next
	}
}

// SummariesByDate returns every store's daily summary for a date via the
// secondary index.
func (s *SalesStore) SummariesByDate(ctx context.Context, date string) ([]model.StoreDailySummary, error) {
	summaries := []model.StoreDailySummary{}
	page := Page{}
	for {
		result, err := s.table.QueryIndex(ctx, keys.DateIPK(date), page)
		if err != nil {
			return nil, fmt.Errorf("query summaries by date: %w", err)
		}
		for _, raw := range result.Items {
			isk, _ := raw.Lookup("isk").StringValueOK()
			if !strings.HasPrefix(isk, keys.StorePK("")) {
				continue
			}
			var summary model.StoreDailySummary
			if err := bson.Unmarshal(raw, &summary); err != nil {
				return nil, fmt.Errorf("decode store summary: %w", err)
			}
			summaries = append(summaries, summary)
		}
		if result.Next == "" {
			return summaries, nil
		}
		page.StartAfter = result.Next
	}
}

// CompanySummaryByDate returns the company rollup for a date, or
// ErrNotFound when the date has no rollup yet.
func (s *SalesStore) CompanySummaryByDate(ctx context.Context, date string) (model.CompanyDailySummary, error) {
	key, err := keys.CompanySummary(date)
	if err != nil {
		return model.CompanyDailySummary{}, err
	}
	raw, err := s.table.Get(ctx, key.PK, key.SK)
	if err != nil {
		return model.CompanyDailySummary{}, err
	}
	var summary model.CompanyDailySummary
	if err := bson.Unmarshal(raw, &summary); err != nil {
		return model.CompanyDailySummary{}, fmt.Errorf("decode company summary: %w", err)
	}
	return summary, nil
}

// ProductsByDate returns every product rollup for a date.
func (s *SalesStore) ProductsByDate(ctx context.Context, date string) ([]model.ProductDailySummary, error) {
	products := []model.ProductDailySummary{}
	page := Page{}
	for {
		result, err := s.table.QueryPK(ctx, keys.DatePK(date), keys.ProductSKPrefix(), page)
		if err != nil {
			return nil, fmt.Errorf("query products by date: %w", err)
		}
		for _, raw := range result.Items {
			var p model.ProductDailySummary
			if err := bson.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode product summary: %w", err)
			}
			products = append(products, p)
		}
		if result.Next == "" {
			return products, nil
		}
		page.StartAfter = result.Next
	}
}

// ProductHistory returns every dated rollup of one product via the
// secondary index. Retrieval order is not guaranteed.
func (s *SalesStore) ProductHistory(ctx context.Context, sku string) ([]model.ProductDailySummary, error) {
	products := []model.ProductDailySummary{}
	page := Page{}
	for {
		result, err := s.table.QueryIndex(ctx, keys.ProductIPK(sku), page)
		if err != nil {
			return nil, fmt.Errorf("query product history: %w", err)
		}
		for _, raw := range result.Items {
			var p model.ProductDailySummary
			if err := bson.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode product summary: %w", err)
			}
			products = append(products, p)
		}
		if result.Next == "" {
			return products, nil
		}
		page.StartAfter = result.Next
	}
}

// InsightsByDate returns the persisted insights of a date grouped by type.
func (s *SalesStore) InsightsByDate(ctx context.Context, date string) (model.Insights, error) {
	insights := model.Insights{
		Anomalies:       []model.Anomaly{},
		Trends:          []model.TrendInsight{},
		Recommendations: []model.Recommendation{},
	}
	page := Page{}
	for {
		result, err := s.table.QueryPK(ctx, keys.DatePK(date), keys.InsightSKPrefix(), page)
		if err != nil {
			return model.Insights{}, fmt.Errorf("query insights: %w", err)
		}
		for _, raw := range result.Items {
			sk, _ := raw.Lookup("sk").StringValueOK()
			insightType, _, err := keys.InsightParts(sk)
			if err != nil {
				s.log.WithField("sk", sk).Warn("skipping unparseable insight key")
				continue
			}
			switch insightType {
			case model.InsightAnomaly:
				var a model.Anomaly
				if err := bson.Unmarshal(raw, &a); err == nil {
					insights.Anomalies = append(insights.Anomalies, a)
				}
			case model.InsightTrend:
				var tr model.TrendInsight
				if err := bson.Unmarshal(raw, &tr); err == nil {
					insights.Trends = append(insights.Trends, tr)
				}
			case model.InsightRecommendation:
				var r model.Recommendation
				if err := bson.Unmarshal(raw, &r); err == nil {
					insights.Recommendations = append(insights.Recommendations, r)
				}
			}
		}
		if result.Next == "" {
			return insights, nil
		}
		page.StartAfter = result.Next
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}
