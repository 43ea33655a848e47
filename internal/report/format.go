// Package report renders the plain-text daily sales report and publishes
// it for downstream notification consumers.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/storepulse/backend/internal/model"
)

const (
	lineWidth     = 40
	wrapWidth     = 70
	wrapIndent    = "   "
	maxListedRows = 5
)

// Report is the rendered daily report.
type Report struct {
	Date    string `json:"date"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Format renders the daily report. Missing sections degrade to a shorter
// report, never to an error.
func Format(date string, company *model.CompanyDailySummary, products []model.ProductDailySummary, insights *model.Insights) Report {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	rule := func(c string) { line(strings.Repeat(c, lineWidth)) }

	line("STOREPULSE DAILY SALES REPORT")
	rule("=")
	line("Date: %s", date)
	line("")
	line("COMPANY SUMMARY")
	rule("-")
	if company != nil {
		line("Total Sales: $%.2f", company.TotalSales)
		line("Transactions: %d", company.TotalTransactions)
		line("Total Items: %d", company.TotalItems)
		line("Stores Reporting: %d", company.StoreCount)
		line("Avg Transaction: $%.2f", company.AvgTransaction)
		line("")
		if company.BestStore != nil {
			line("Best Store: #%s ($%.2f)", company.BestStore.StoreID, company.BestStore.TotalSales)
		}
		if company.WorstStore != nil {
			line("Worst Store: #%s ($%.2f)", company.WorstStore.StoreID, company.WorstStore.TotalSales)
		}
		if len(company.PaymentBreakdown) > 0 {
			line("")
			line("PAYMENT BREAKDOWN")
			rule("-")
			for _, method := range paymentMethodsByAmount(company.PaymentBreakdown) {
				line("  %s: $%.2f", titleCase(method), company.PaymentBreakdown[method])
			}
		}
	} else {
		line("(company summary unavailable)")
	}

	if len(products) > 0 {
		line("")
		line("TOP PRODUCTS")
		rule("-")
		for i, p := range products {
			if i == maxListedRows {
				break
			}
			line("%d. %s - %d units - $%.2f", i+1, p.Name, p.UnitsSold, p.Revenue)
		}
	}

	if insights != nil {
		line("")
		line("AI INSIGHTS")
		rule("=")

		if len(insights.Anomalies) > 0 {
			line("")
			line("ANOMALIES DETECTED")
			rule("-")
			for i, a := range insights.Anomalies {
				if i == maxListedRows {
					break
				}
				line("%s %s", severityIcon(a.Severity), a.Title)
				writeWrapped(&b, a.Description)
			}
		}

		if len(insights.Trends) > 0 {
			line("")
			line("TRENDS IDENTIFIED")
			rule("-")
			for i, tr := range insights.Trends {
				if i == maxListedRows {
					break
				}
				line("-> %s", tr.Title)
				writeWrapped(&b, tr.Description)
			}
		}

		if len(insights.Recommendations) > 0 {
			line("")
			line("RECOMMENDATIONS")
			rule("-")
			for i, r := range insights.Recommendations {
				if i == maxListedRows {
					break
				}
				line("%d. %s %s", i+1, priorityIcon(r.Priority), r.Title)
				writeWrapped(&b, r.Description)
			}
		}

		if insights.Total() == 0 {
			line("")
			line("No significant insights detected for today.")
		}
	} else {
		line("")
		line("(AI insights unavailable for this report)")
	}

	line("")
	rule("-")
	line("Report generated by StorePulse")

	return Report{
		Date:    date,
		Subject: "Daily Sales Report - " + date,
		Message: b.String(),
	}
}

func paymentMethodsByAmount(payments map[string]float64) []string {
	methods := make([]string, 0, len(payments))
	for m := range payments {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool {
		if payments[methods[i]] != payments[methods[j]] {
			return payments[methods[i]] > payments[methods[j]]
		}
		return methods[i] < methods[j]
	})
	return methods
}

func severityIcon(severity string) string {
	switch severity {
	case "critical":
		return "[!!!]"
	case "warning":
		return "[!]"
	case "info":
		return "[i]"
	default:
		return "[?]"
	}
}

func priorityIcon(priority string) string {
	switch priority {
	case "high":
		return "[HIGH]"
	case "medium":
		return "[MED]"
	case "low":
		return "[LOW]"
	default:
		return "[?]"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// writeWrapped emits a description indented and wrapped to the report
// width. Empty descriptions produce nothing.
func writeWrapped(b *strings.Builder, text string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}
	current := wrapIndent
	for _, w := range words {
		if current != wrapIndent && len(current)+1+len(w) > wrapWidth {
			b.WriteString(current + "\n")
			current = wrapIndent
		}
		if current == wrapIndent {
			current += w
		} else {
			current += " " + w
		}
	}
	b.WriteString(current + "\n")
}
