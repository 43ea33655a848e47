package report

import (
	"strings"
	"testing"

	"github.com/storepulse/backend/internal/model"
)

func sampleCompany() *model.CompanyDailySummary {
	return &model.CompanyDailySummary{
		Date:              "2024-03-10",
		TotalSales:        1234.50,
		TotalTransactions: 87,
		TotalItems:        215,
		StoreCount:        11,
		AvgTransaction:    14.19,
		BestStore:         &model.StoreRef{StoreID: "0004", TotalSales: 310.25},
		WorstStore:        &model.StoreRef{StoreID: "0009", TotalSales: 42.00},
		PaymentBreakdown:  map[string]float64{"cash": 400.00, "card": 834.50},
	}
}

func TestFormatFullReport(t *testing.T) {
	products := []model.ProductDailySummary{
		{SKU: "SMF-001", Name: "Papa Figurine", UnitsSold: 40, Revenue: 399.60},
		{SKU: "SMF-002", Name: "Village Mug", UnitsSold: 25, Revenue: 187.25},
	}
	insights := &model.Insights{
		Anomalies: []model.Anomaly{
			{Severity: "critical", Title: "Store 0009 sharp drop", Description: "Sales fell far below the trailing average."},
		},
		Trends: []model.TrendInsight{
			{Title: "Figurines trending up"},
		},
		Recommendations: []model.Recommendation{
			{Priority: "high", Title: "Restock figurines", Description: "Increase stock at top stores."},
		},
	}

	r := Format("2024-03-10", sampleCompany(), products, insights)

	if r.Subject != "Daily Sales Report - 2024-03-10" {
		t.Fatalf("subject = %q", r.Subject)
	}
	for _, want := range []string{
		"STOREPULSE DAILY SALES REPORT",
		"Date: 2024-03-10",
		"Total Sales: $1234.50",
		"Stores Reporting: 11",
		"Best Store: #0004 ($310.25)",
		"Worst Store: #0009 ($42.00)",
		"PAYMENT BREAKDOWN",
		"Card: $834.50",
		"1. Papa Figurine - 40 units - $399.60",
		"[!!!] Store 0009 sharp drop",
		"-> Figurines trending up",
		"1. [HIGH] Restock figurines",
		"Report generated by StorePulse",
	} {
		if !strings.Contains(r.Message, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// card carries more volume than cash and must come first
	if strings.Index(r.Message, "Card:") > strings.Index(r.Message, "Cash:") {
		t.Error("payment methods not ordered by amount")
	}
}

func TestFormatWithoutInsights(t *testing.T) {
	r := Format("2024-03-10", sampleCompany(), nil, nil)

	if !strings.Contains(r.Message, "(AI insights unavailable for this report)") {
		t.Error("missing insights placeholder")
	}
	if strings.Contains(r.Message, "TOP PRODUCTS") {
		t.Error("empty product list should omit the section")
	}
}

func TestFormatEmptyInsights(t *testing.T) {
	r := Format("2024-03-10", sampleCompany(), nil, &model.Insights{})

	if !strings.Contains(r.Message, "No significant insights detected for today.") {
		t.Error("empty insights should render the no-insights line")
	}
}

func TestFormatWithoutCompany(t *testing.T) {
	r := Format("2024-03-10", nil, nil, nil)

	if !strings.Contains(r.Message, "(company summary unavailable)") {
		t.Error("missing company placeholder")
	}
}

func TestFormatCapsListedRows(t *testing.T) {
	products := make([]model.ProductDailySummary, 8)
	for i := range products {
		products[i] = model.ProductDailySummary{Name: "P", UnitsSold: 1, Revenue: 1}
	}

	r := Format("2024-03-10", sampleCompany(), products, nil)

	if strings.Contains(r.Message, "6. ") {
		t.Error("top products should stop at five rows")
	}
}

func TestWriteWrappedIndentsLongText(t *testing.T) {
	var b strings.Builder
	writeWrapped(&b, strings.Repeat("word ", 30))

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("long text should wrap, got %d line(s)", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "   ") {
			t.Fatalf("wrapped line not indented: %q", l)
		}
		if len(l) > 70 {
			t.Fatalf("line exceeds width: %d", len(l))
		}
	}
}
