package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/model"
)

type productMerge struct {
	sku       string
	name      string
	units     int
	revenue   decimal.Decimal
	storeSet  map[string]struct{}
	storeList []string
}

// AggregateProducts merges the per-store top-product lists of a date into
// the global product ranking. Units and revenue are additive across stores;
// stores_sold_at is a set regardless of how often a store appears in the
// input. The result is sorted descending by revenue, first-encountered sku
// winning ties.
func AggregateProducts(date string, summaries []model.StoreDailySummary) []model.ProductDailySummary {
	merged := map[string]*productMerge{}
	order := []string{}

	for _, summary := range summaries {
		for _, p := range summary.TopProducts {
			if p.SKU == "" {
				continue
			}
			m, ok := merged[p.SKU]
			if !ok {
				m = &productMerge{sku: p.SKU, name: p.Name, storeSet: map[string]struct{}{}}
				merged[p.SKU] = m
				order = append(order, p.SKU)
			}
			m.units += p.Units
			m.revenue = m.revenue.Add(decimal.NewFromFloat(p.Revenue))
			if p.Units > 0 {
				if _, seen := m.storeSet[summary.StoreID]; !seen {
					m.storeSet[summary.StoreID] = struct{}{}
					m.storeList = append(m.storeList, summary.StoreID)
				}
			}
		}
	}

	ranked := make([]*productMerge, 0, len(order))
	for _, sku := range order {
		ranked = append(ranked, merged[sku])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].revenue.GreaterThan(ranked[j].revenue)
	})

	out := make([]model.ProductDailySummary, 0, len(ranked))
	for _, m := range ranked {
		stores := m.storeList
		if stores == nil {
			stores = []string{}
		}
		out = append(out, model.ProductDailySummary{
			SKU:          m.sku,
			Name:         m.name,
			Date:         date,
			UnitsSold:    m.units,
			Revenue:      toCents(m.revenue),
			StoresSoldAt: stores,
			StoreCount:   len(stores),
		})
	}
	return out
}
