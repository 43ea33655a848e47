package metrics

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/model"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(txn, sku, name string, qty int, total, discount, price, method string) model.LineItem {
	return model.LineItem{
		TransactionID: txn,
		Timestamp:     time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		SKU:           sku,
		Name:          name,
		Quantity:      qty,
		UnitPrice:     dec(price),
		LineTotal:     dec(total),
		Discount:      dec(discount),
		PaymentMethod: method,
		CustomerID:    "CUST-001",
	}
}

func TestSummarizeTotals(t *testing.T) {
	agg := NewAggregator(testLogger())

	items := []model.LineItem{
		line("T1", "SMF-001", "Figurine", 2, "19.98", "2.00", "9.99", "card"),
		line("T1", "SMF-002", "Mug", 1, "12.50", "0.00", "12.50", "card"),
		line("T2", "SMF-001", "Figurine", 1, "9.99", "0.99", "9.99", "cash"),
	}

	summary, err := agg.Summarize("0001", "2025-01-15", items)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if summary.TotalSales != 42.47 {
		t.Errorf("Expected total_sales 42.47, got %v", summary.TotalSales)
	}
	if summary.TotalDiscount != 2.99 {
		t.Errorf("Expected total_discount 2.99, got %v", summary.TotalDiscount)
	}
	if summary.NetSales != 39.48 {
		t.Errorf("Expected net_sales 39.48, got %v", summary.NetSales)
	}
	if summary.ItemCount != 4 {
		t.Errorf("Expected item_count 4, got %d", summary.ItemCount)
	}
	if summary.TransactionCount != 2 {
		t.Errorf("Expected 2 distinct transactions, got %d", summary.TransactionCount)
	}
	// 39.48 / 2 = 19.74
	if summary.AvgTransaction != 19.74 {
		t.Errorf("Expected avg_transaction 19.74, got %v", summary.AvgTransaction)
	}
	if summary.RecordCount != 3 {
		t.Errorf("Expected record_count 3, got %d", summary.RecordCount)
	}
}

func TestSummarizePaymentBreakdown(t *testing.T) {
	agg := NewAggregator(testLogger())

	items := []model.LineItem{
		line("T1", "SMF-001", "Figurine", 1, "10.00", "1.00", "10.00", "card"),
		line("T2", "SMF-001", "Figurine", 1, "10.00", "0.00", "10.00", "card"),
		line("T3", "SMF-002", "Mug", 1, "5.00", "0.00", "5.00", "cash"),
	}

	summary, err := agg.Summarize("0001", "2025-01-15", items)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if got := summary.PaymentBreakdown["card"]; got != 19.00 {
		t.Errorf("Expected card breakdown 19.00, got %v", got)
	}
	if got := summary.PaymentBreakdown["cash"]; got != 5.00 {
		t.Errorf("Expected cash breakdown 5.00, got %v", got)
	}
}

func TestSummarizeTopProducts(t *testing.T) {
	agg := NewAggregator(testLogger())

	// Six skus; two tie on revenue. SMF-B appears before SMF-F and must win
	// the tie on first-encountered order.
	items := []model.LineItem{
		line("T1", "SMF-A", "A", 1, "50.00", "0.00", "50.00", "card"),
		line("T1", "SMF-B", "B", 1, "20.00", "0.00", "20.00", "card"),
		line("T2", "SMF-C", "C", 1, "40.00", "0.00", "40.00", "card"),
		line("T2", "SMF-D", "D", 1, "30.00", "0.00", "30.00", "card"),
		line("T3", "SMF-E", "E", 1, "10.00", "0.00", "10.00", "cash"),
		line("T3", "SMF-F", "F", 1, "20.00", "0.00", "20.00", "cash"),
	}

	summary, err := agg.Summarize("0001", "2025-01-15", items)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if len(summary.TopProducts) != TopProductLimit {
		t.Fatalf("Expected %d top products, got %d", TopProductLimit, len(summary.TopProducts))
	}

	wantOrder := []string{"SMF-A", "SMF-C", "SMF-D", "SMF-B", "SMF-F"}
	for i, want := range wantOrder {
		if summary.TopProducts[i].SKU != want {
			t.Errorf("Rank %d: expected %s, got %s", i, want, summary.TopProducts[i].SKU)
		}
	}

	for i := 1; i < len(summary.TopProducts); i++ {
		if summary.TopProducts[i].Revenue > summary.TopProducts[i-1].Revenue {
			t.Errorf("Top products not sorted by revenue at index %d", i)
		}
	}
}

func TestSummarizeLastSeenNameWins(t *testing.T) {
	agg := NewAggregator(testLogger())

	items := []model.LineItem{
		line("T1", "SMF-001", "Old Name", 1, "10.00", "0.00", "10.00", "card"),
		line("T2", "SMF-001", "New Name", 1, "10.00", "0.00", "10.00", "card"),
	}

	summary, err := agg.Summarize("0001", "2025-01-15", items)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary.TopProducts[0].Name != "New Name" {
		t.Errorf("Expected last-seen name 'New Name', got %q", summary.TopProducts[0].Name)
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	agg := NewAggregator(testLogger())

	summary, err := agg.Summarize("0001", "2025-01-15", nil)
	if err != nil {
		t.Fatalf("Expected zero summary for empty input, got error: %v", err)
	}

	if summary.TotalSales != 0 || summary.NetSales != 0 || summary.TransactionCount != 0 {
		t.Errorf("Expected zero-valued summary, got %+v", summary)
	}
	if summary.TopProducts == nil || len(summary.TopProducts) != 0 {
		t.Errorf("Expected empty top products slice, got %v", summary.TopProducts)
	}
	if summary.PaymentBreakdown == nil || len(summary.PaymentBreakdown) != 0 {
		t.Errorf("Expected empty payment breakdown, got %v", summary.PaymentBreakdown)
	}
}

func TestSummarizeMalformedLineAbortsBatch(t *testing.T) {
	agg := NewAggregator(testLogger())

	bad := line("T2", "", "Mug", 1, "5.00", "0.00", "5.00", "cash") // missing sku
	items := []model.LineItem{
		line("T1", "SMF-001", "Figurine", 1, "10.00", "0.00", "10.00", "card"),
		bad,
		line("T3", "SMF-003", "Poster", 1, "7.00", "0.00", "7.00", "card"),
	}

	if _, err := agg.Summarize("0001", "2025-01-15", items); err == nil {
		t.Fatal("Expected error for malformed line item, got nil")
	}

	missing := line("T1", "SMF-001", "Figurine", 1, "10.00", "0.00", "10.00", "")
	if _, err := agg.Summarize("0001", "2025-01-15", []model.LineItem{missing}); err == nil {
		t.Fatal("Expected error for missing payment method, got nil")
	}
}

func TestSummarizeMissingAmountAbortsBatch(t *testing.T) {
	agg := NewAggregator(testLogger())

	noTotal := line("T1", "SMF-001", "Figurine", 1, "10.00", "0.00", "10.00", "card")
	noTotal.LineTotal = decimal.Decimal{}
	if _, err := agg.Summarize("0001", "2025-01-15", []model.LineItem{noTotal}); err == nil {
		t.Fatal("Expected error for missing line_total, got nil")
	}

	noDiscount := line("T1", "SMF-001", "Figurine", 1, "10.00", "0.00", "10.00", "card")
	noDiscount.Discount = decimal.Decimal{}
	if _, err := agg.Summarize("0001", "2025-01-15", []model.LineItem{noDiscount}); err == nil {
		t.Fatal("Expected error for missing discount_amount, got nil")
	}
}

func TestSummarizeExplicitZeroAmountsAccepted(t *testing.T) {
	agg := NewAggregator(testLogger())

	// A decoded zero is present, only an absent amount is rejected.
	var item model.LineItem
	payload := `{"transaction_id":"T1","transaction_timestamp":"2025-01-15T10:30:00Z",` +
		`"item_sku":"SMF-001","item_name":"Figurine","quantity":1,` +
		`"unit_price":"10.00","line_total":"0","discount_amount":"0",` +
		`"payment_method":"card","customer_id":"CUST-001"}`
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	summary, err := agg.Summarize("0001", "2025-01-15", []model.LineItem{item})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary.TotalSales != 0 {
		t.Errorf("Expected total_sales 0, got %v", summary.TotalSales)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	agg := NewAggregator(testLogger())

	items := []model.LineItem{
		line("T1", "SMF-001", "Figurine", 2, "19.98", "2.00", "9.99", "card"),
		line("T2", "SMF-002", "Mug", 1, "12.50", "0.50", "12.50", "cash"),
		line("T3", "SMF-003", "Poster", 3, "21.00", "0.00", "7.00", "mobile"),
	}

	first, err := agg.Summarize("0001", "2025-01-15", items)
	if err != nil {
		t.Fatalf("First run returned error: %v", err)
	}
	second, err := agg.Summarize("0001", "2025-01-15", items)
	if err != nil {
		t.Fatalf("Second run returned error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("Expected byte-identical summaries, got\n%s\nvs\n%s", a, b)
	}
}
