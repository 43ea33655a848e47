// Package model defines the entities of the sales analytics pipeline.
// Records are immutable once written; a later write for the same identity
// fully replaces the prior value.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one transaction line from a store's daily upload. Currency
// fields are decimals so aggregation never accumulates binary float drift.
type LineItem struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	Timestamp     time.Time       `json:"transaction_timestamp" validate:"required"`
	SKU           string          `json:"item_sku" validate:"required"`
	Name          string          `json:"item_name" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	// required on the amount fields rejects absent values only: a decoded
	// "0" carries a non-zero internal representation and passes.
	UnitPrice     decimal.Decimal `json:"unit_price" validate:"required"`
	LineTotal     decimal.Decimal `json:"line_total" validate:"required"`
	Discount      decimal.Decimal `json:"discount_amount" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	CustomerID    string          `json:"customer_id"`
}

// TopProduct is one entry of a store's top-products ranking.
type TopProduct struct {
	SKU     string  `bson:"sku" json:"sku"`
	Name    string  `bson:"name" json:"name"`
	Units   int     `bson:"units" json:"units"`
	Revenue float64 `bson:"revenue" json:"revenue"`
}

// StoreDailySummary is the rollup of one store's transactions for one date.
// Identity: (store_id, date). Currency fields are already rounded to cents;
// this is the serialized form of the decimal aggregation.
type StoreDailySummary struct {
	StoreID          string             `bson:"store_id" json:"store_id"`
	Date             string             `bson:"date" json:"date"`
	TotalSales       float64            `bson:"total_sales" json:"total_sales"`
	TotalDiscount    float64            `bson:"total_discount" json:"total_discount"`
	NetSales         float64            `bson:"net_sales" json:"net_sales"`
	TransactionCount int                `bson:"transaction_count" json:"transaction_count"`
	ItemCount        int                `bson:"item_count" json:"item_count"`
	AvgTransaction   float64            `bson:"avg_transaction" json:"avg_transaction"`
	TopProducts      []TopProduct       `bson:"top_products" json:"top_products"`
	PaymentBreakdown map[string]float64 `bson:"payment_breakdown" json:"payment_breakdown"`
	RecordCount      int                `bson:"record_count" json:"record_count"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// UploadTrackingRecord marks that a store's file for a date has been
// processed. Identity: (date, store_id). Written alongside the summary.
type UploadTrackingRecord struct {
	StoreID     string    `bson:"store_id" json:"store_id"`
	Date        string    `bson:"date" json:"date"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
	SourceRef   string    `bson:"source_ref" json:"source_ref"`
	RecordCount int       `bson:"record_count" json:"record_count"`
	Status      string    `bson:"status" json:"status"`
	TotalSales  float64   `bson:"total_sales" json:"total_sales"`
}

// StoreRef names a store together with its sales total, used for the
// best/worst ranking inside the company summary.
type StoreRef struct {
	StoreID    string  `bson:"store_id" json:"store_id"`
	TotalSales float64 `bson:"total_sales" json:"total_sales"`
}

// CompanyDailySummary is the company-wide rollup for one date.
type CompanyDailySummary struct {
	Date              string             `bson:"date" json:"date"`
	TotalSales        float64            `bson:"total_sales" json:"total_sales"`
	TotalTransactions int                `bson:"total_transactions" json:"total_transactions"`
	TotalItems        int                `bson:"total_items" json:"total_items"`
	StoreCount        int                `bson:"store_count" json:"store_count"`
	StoresReported    []string           `bson:"stores_reported" json:"stores_reported"`
	AvgTransaction    float64            `bson:"avg_transaction" json:"avg_transaction"`
	AvgStoreSales     float64            `bson:"avg_store_sales" json:"avg_store_sales"`
	BestStore         *StoreRef          `bson:"best_store,omitempty" json:"best_store,omitempty"`
	WorstStore        *StoreRef          `bson:"worst_store,omitempty" json:"worst_store,omitempty"`
	PaymentBreakdown  map[string]float64 `bson:"payment_breakdown" json:"payment_breakdown"`
}

// ProductDailySummary is the cross-store rollup of one product for one date.
// Identity: (date, sku). StoresSoldAt is a set: no store appears twice.
type ProductDailySummary struct {
	SKU          string   `bson:"product_sku" json:"sku"`
	Name         string   `bson:"product_name" json:"name"`
	Date         string   `bson:"date" json:"date"`
	UnitsSold    int      `bson:"units_sold" json:"units_sold"`
	Revenue      float64  `bson:"revenue" json:"revenue"`
	StoresSoldAt []string `bson:"stores_sold_at" json:"stores_sold_at"`
	StoreCount   int      `bson:"store_count" json:"store_count"`
}

// Insight type tags.
const (
	InsightAnomaly        = "anomaly"
	InsightTrend          = "trend"
	InsightRecommendation = "recommendation"
)

// Anomaly is a generated insight flagging a store deviating from its own
// history or from its peers.
type Anomaly struct {
	Type              string  `bson:"type" json:"type"`
	Severity          string  `bson:"severity" json:"severity"`
	StoreID           string  `bson:"store_id,omitempty" json:"store_id,omitempty"`
	Title             string  `bson:"title" json:"title"`
	Description       string  `bson:"description" json:"description"`
	MetricValue       float64 `bson:"metric_value,omitempty" json:"metric_value,omitempty"`
	HistoricalAverage float64 `bson:"historical_average,omitempty" json:"historical_average,omitempty"`
	DeviationPercent  float64 `bson:"deviation_percent,omitempty" json:"deviation_percent,omitempty"`
}

// TrendInsight is a generated insight describing a multi-day pattern.
type TrendInsight struct {
	Type                string   `bson:"trend_type" json:"type"`
	Title               string   `bson:"title" json:"title"`
	Description         string   `bson:"description" json:"description"`
	Significance        string   `bson:"significance" json:"significance"`
	TrendDirection      string   `bson:"trend_direction,omitempty" json:"trend_direction,omitempty"`
	MetricChangePercent float64  `bson:"metric_change_percent,omitempty" json:"metric_change_percent,omitempty"`
	AffectedItems       []string `bson:"affected_items" json:"affected_items"`
}

// Recommendation is a generated, actionable suggestion derived from the
// detected anomalies and trends.
type Recommendation struct {
	Priority         string   `bson:"priority" json:"priority"`
	Category         string   `bson:"category" json:"category"`
	Title            string   `bson:"title" json:"title"`
	Description      string   `bson:"description" json:"description"`
	AffectedStores   []string `bson:"affected_stores,omitempty" json:"affected_stores,omitempty"`
	AffectedProducts []string `bson:"affected_products,omitempty" json:"affected_products,omitempty"`
	ExpectedImpact   string   `bson:"expected_impact,omitempty" json:"expected_impact,omitempty"`
}

// Insights groups the three generated analysis outputs for one date.
type Insights struct {
	Anomalies       []Anomaly        `json:"anomalies"`
	Trends          []TrendInsight   `json:"trends"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Total is the number of individual insight items across all three lists.
func (i Insights) Total() int {
	return len(i.Anomalies) + len(i.Trends) + len(i.Recommendations)
}
