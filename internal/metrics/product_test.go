package metrics

import (
	"testing"

	"github.com/storepulse/backend/internal/model"
)

func summaryWithProducts(storeID string, products ...model.TopProduct) model.StoreDailySummary {
	return model.StoreDailySummary{
		StoreID:     storeID,
		Date:        "2025-01-15",
		TopProducts: products,
	}
}

func TestAggregateProductsMerge(t *testing.T) {
	summaries := []model.StoreDailySummary{
		summaryWithProducts("0001",
			model.TopProduct{SKU: "SMF-001", Name: "Figurine", Units: 5, Revenue: 49.95},
			model.TopProduct{SKU: "SMF-002", Name: "Mug", Units: 2, Revenue: 25.00},
		),
		summaryWithProducts("0002",
			model.TopProduct{SKU: "SMF-001", Name: "Figurine", Units: 3, Revenue: 29.97},
		),
	}

	products := AggregateProducts("2025-01-15", summaries)
	if len(products) != 2 {
		t.Fatalf("Expected 2 merged products, got %d", len(products))
	}

	// SMF-001: 49.95 + 29.97 = 79.92, ranks above SMF-002.
	first := products[0]
	if first.SKU != "SMF-001" {
		t.Fatalf("Expected SMF-001 first, got %s", first.SKU)
	}
	if first.UnitsSold != 8 {
		t.Errorf("Expected 8 units, got %d", first.UnitsSold)
	}
	if first.Revenue != 79.92 {
		t.Errorf("Expected revenue 79.92, got %v", first.Revenue)
	}
	if len(first.StoresSoldAt) != 2 || first.StoreCount != 2 {
		t.Errorf("Expected 2 stores, got %v", first.StoresSoldAt)
	}
}

func TestAggregateProductsStoreSet(t *testing.T) {
	// The same store contributing the same sku twice must not duplicate the
	// store in stores_sold_at.
	summaries := []model.StoreDailySummary{
		summaryWithProducts("0001",
			model.TopProduct{SKU: "SMF-001", Units: 1, Revenue: 10.00},
			model.TopProduct{SKU: "SMF-001", Units: 1, Revenue: 10.00},
		),
	}

	products := AggregateProducts("2025-01-15", summaries)
	if len(products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(products))
	}
	if len(products[0].StoresSoldAt) != 1 {
		t.Errorf("Expected one store in set, got %v", products[0].StoresSoldAt)
	}
	if products[0].UnitsSold != 2 {
		t.Errorf("Expected additive units 2, got %d", products[0].UnitsSold)
	}
}

func TestAggregateProductsZeroUnitsExcludedFromStoreSet(t *testing.T) {
	summaries := []model.StoreDailySummary{
		summaryWithProducts("0001", model.TopProduct{SKU: "SMF-001", Units: 0, Revenue: 0}),
		summaryWithProducts("0002", model.TopProduct{SKU: "SMF-001", Units: 4, Revenue: 40.00}),
	}

	products := AggregateProducts("2025-01-15", summaries)
	if len(products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(products))
	}
	if len(products[0].StoresSoldAt) != 1 || products[0].StoresSoldAt[0] != "0002" {
		t.Errorf("Expected only store 0002 in set, got %v", products[0].StoresSoldAt)
	}
}

func TestAggregateProductsSortAndTieBreak(t *testing.T) {
	summaries := []model.StoreDailySummary{
		summaryWithProducts("0001",
			model.TopProduct{SKU: "SMF-LOW", Units: 1, Revenue: 5.00},
			model.TopProduct{SKU: "SMF-TIE-A", Units: 1, Revenue: 20.00},
			model.TopProduct{SKU: "SMF-HIGH", Units: 1, Revenue: 99.00},
		),
		summaryWithProducts("0002",
			model.TopProduct{SKU: "SMF-TIE-B", Units: 1, Revenue: 20.00},
		),
	}

	products := AggregateProducts("2025-01-15", summaries)

	wantOrder := []string{"SMF-HIGH", "SMF-TIE-A", "SMF-TIE-B", "SMF-LOW"}
	if len(products) != len(wantOrder) {
		t.Fatalf("Expected %d products, got %d", len(wantOrder), len(products))
	}
	for i, want := range wantOrder {
		if products[i].SKU != want {
			t.Errorf("Rank %d: expected %s, got %s", i, want, products[i].SKU)
		}
	}
}

func TestAggregateProductsEmptyInput(t *testing.T) {
	products := AggregateProducts("2025-01-15", nil)
	if len(products) != 0 {
		t.Errorf("Expected empty result, got %v", products)
	}
}
