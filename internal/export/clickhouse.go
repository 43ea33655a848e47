// Package export copies daily rollups out of the operational store into the
// ClickHouse warehouse that the BI dashboards query.
package export

import (
	"context"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/storepulse/backend/internal/model"
)

// Warehouse is the analytical sink. Implementations must be safe for
// concurrent use.
type Warehouse interface {
	// WriteStoreSummaries inserts a batch of store day rows.
	WriteStoreSummaries(ctx context.Context, summaries []model.StoreDailySummary) error

	// WriteProductSummaries inserts a batch of product day rows.
	WriteProductSummaries(ctx context.Context, products []model.ProductDailySummary) error

	// WriteInsightRows inserts a batch of flattened insight rows.
	WriteInsightRows(ctx context.Context, rows []InsightRow) error

	// Close releases connection resources.
	Close() error
}

// InsightRow is the flattened warehouse form of one generated insight.
type InsightRow struct {
	Date        string
	InsightType string
	Severity    string
	StoreID     string
	Title       string
	Description string
}

type clickhouseWarehouse struct {
	conn driver.Conn
}

// NewClickHouseWarehouse opens a connection from a DSN and verifies it with
// a ping. Returns an error if the warehouse is unreachable within 5 seconds.
func NewClickHouseWarehouse(dsn string) (Warehouse, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}

	return &clickhouseWarehouse{conn: conn}, nil
}

// WriteStoreSummaries inserts store rows using a ClickHouse batch insert.
// All rows in the batch share the same exported_at timestamp.
func (w *clickhouseWarehouse) WriteStoreSummaries(ctx context.Context, summaries []model.StoreDailySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO store_daily_summary (
			store_id, date, total_sales, total_discount, net_sales,
			transaction_count, item_count, avg_transaction,
			exported_at
		)
	`)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, s := range summaries {
		err := batch.Append(
			s.StoreID,
			s.Date,
			s.TotalSales,
			s.TotalDiscount,
			s.NetSales,
			uint32(s.TransactionCount),
			uint32(s.ItemCount),
			s.AvgTransaction,
			now,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// WriteProductSummaries inserts product rows using a ClickHouse batch insert.
func (w *clickhouseWarehouse) WriteProductSummaries(ctx context.Context, products []model.ProductDailySummary) error {
	if len(products) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO product_daily_summary (
			product_sku, product_name, date,
			units_sold, revenue, store_count,
			stores_sold_at, exported_at
		)
	`)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, p := range products {
		err := batch.Append(
			p.SKU,
			p.Name,
			p.Date,
			uint32(p.UnitsSold),
			p.Revenue,
			uint32(p.StoreCount),
			strings.Join(p.StoresSoldAt, ","),
			now,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// WriteInsightRows inserts insight rows using a ClickHouse batch insert.
func (w *clickhouseWarehouse) WriteInsightRows(ctx context.Context, rows []InsightRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO daily_insight (
			date, insight_type, severity, store_id,
			title, description, exported_at
		)
	`)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, r := range rows {
		err := batch.Append(
			r.Date,
			r.InsightType,
			r.Severity,
			r.StoreID,
			r.Title,
			r.Description,
			now,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// Close closes the ClickHouse connection.
func (w *clickhouseWarehouse) Close() error {
	return w.conn.Close()
}
