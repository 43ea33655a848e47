// Package metrics implements the rollup algorithms of the pipeline:
// transactions to store summary, store summaries to company summary, and
// store top-product lists to the global product ranking.
package metrics

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/model"
)

// TopProductLimit bounds the per-store top-products ranking.
const TopProductLimit = 5

// Aggregator reduces a store's daily transaction list into one summary.
// A malformed line item fails the whole batch; partial aggregation of a
// corrupt file is never returned.
type Aggregator struct {
	validate *validator.Validate
	log      logrus.FieldLogger
}

// NewAggregator creates a per-store metrics aggregator.
func NewAggregator(log logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		validate: validator.New(),
		log:      log,
	}
}

type productAccum struct {
	sku     string
	name    string
	units   int
	revenue decimal.Decimal
}

// Summarize rolls a store's transaction lines into its daily summary.
// Empty input yields a zero-valued summary, not an error. The result is
// deterministic: the same input always produces the same summary.
func (a *Aggregator) Summarize(storeID, date string, items []model.LineItem) (model.StoreDailySummary, error) {
	summary := model.StoreDailySummary{
		StoreID:          storeID,
		Date:             date,
		TopProducts:      []model.TopProduct{},
		PaymentBreakdown: map[string]float64{},
		RecordCount:      len(items),
	}
	if len(items) == 0 {
		a.log.WithFields(logrus.Fields{"store_id": storeID, "date": date}).
			Warn("no transactions in batch, producing zero summary")
		return summary, nil
	}

	totalSales := decimal.Zero
	totalDiscount := decimal.Zero
	itemCount := 0
	seenTxn := map[string]struct{}{}
	payments := map[string]decimal.Decimal{}
	products := map[string]*productAccum{}
	productOrder := []string{}

	for i, item := range items {
		if err := a.validate.Struct(item); err != nil {
			return model.StoreDailySummary{}, fmt.Errorf("line %d invalid: %w", i, err)
		}

		net := item.LineTotal.Sub(item.Discount)

		totalSales = totalSales.Add(item.LineTotal)
		totalDiscount = totalDiscount.Add(item.Discount)
		itemCount += item.Quantity
		seenTxn[item.TransactionID] = struct{}{}

		payments[item.PaymentMethod] = payments[item.PaymentMethod].Add(net)

		p, ok := products[item.SKU]
		if !ok {
			p = &productAccum{sku: item.SKU}
			products[item.SKU] = p
			productOrder = append(productOrder, item.SKU)
		}
		p.units += item.Quantity
		p.revenue = p.revenue.Add(net)
		// Last seen name wins for the sku.
		p.name = item.Name
	}

	netSales := totalSales.Sub(totalDiscount)
	txnCount := len(seenTxn)

	avg := decimal.Zero
	if txnCount > 0 {
		avg = netSales.Div(decimal.NewFromInt(int64(txnCount)))
	}

	// Rank by revenue; first-encountered sku wins ties.
	ranked := make([]*productAccum, 0, len(productOrder))
	for _, sku := range productOrder {
		ranked = append(ranked, products[sku])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].revenue.GreaterThan(ranked[j].revenue)
	})
	if len(ranked) > TopProductLimit {
		ranked = ranked[:TopProductLimit]
	}
	for _, p := range ranked {
		summary.TopProducts = append(summary.TopProducts, model.TopProduct{
			SKU:     p.sku,
			Name:    p.name,
			Units:   p.units,
			Revenue: toCents(p.revenue),
		})
	}

	for method, amount := range payments {
		summary.PaymentBreakdown[method] = toCents(amount)
	}

	summary.TotalSales = toCents(totalSales)
	summary.TotalDiscount = toCents(totalDiscount)
	summary.NetSales = toCents(netSales)
	summary.TransactionCount = txnCount
	summary.ItemCount = itemCount
	summary.AvgTransaction = toCents(avg)

	return summary, nil
}

// toCents converts a decimal amount to its serialized float form, rounded
// to 2 decimal places. Only used at the output boundary.
func toCents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
