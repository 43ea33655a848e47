package analysis

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"anomalies": []}`, `{"anomalies": []}`},
		{"json fence", "Here you go:\n```json\n{\"anomalies\": []}\n```\nDone.", `{"anomalies": []}`},
		{"plain fence", "```\n{\"trends\": []}\n```", `{"trends": []}`},
		{"unclosed fence", "```json\n{\"anomalies\": []}", `{"anomalies": []}`},
		{"surrounding whitespace", "  {\"x\": 1}\n", `{"x": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseAnomalies(t *testing.T) {
	text := "```json\n{\"anomalies\": [{\"type\": \"historical_low\", \"severity\": \"critical\", \"store_id\": \"0003\", \"title\": \"Sharp drop\", \"deviation_percent\": -62.1}]}\n```"

	got := parseAnomalies(text, testLogger())
	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(got))
	}
	a := got[0]
	if a.Type != "historical_low" || a.Severity != "critical" || a.StoreID != "0003" {
		t.Fatalf("unexpected anomaly: %+v", a)
	}
	if a.DeviationPercent != -62.1 {
		t.Fatalf("deviation = %v, want -62.1", a.DeviationPercent)
	}
}

func TestParseAnomaliesGarbage(t *testing.T) {
	if got := parseAnomalies("I could not produce JSON today.", testLogger()); len(got) != 0 {
		t.Fatalf("garbage input should yield no anomalies, got %+v", got)
	}
}

func TestParseTrendsMissingKey(t *testing.T) {
	if got := parseTrends(`{"anomalies": []}`, testLogger()); len(got) != 0 {
		t.Fatalf("response without trends key should yield none, got %+v", got)
	}
}

func TestParseRecommendations(t *testing.T) {
	text := `{"recommendations": [{"priority": "high", "category": "operations", "title": "Review store 0003", "affected_stores": ["0003"]}]}`

	got := parseRecommendations(text, testLogger())
	if len(got) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(got))
	}
	if got[0].Priority != "high" || got[0].Category != "operations" {
		t.Fatalf("unexpected recommendation: %+v", got[0])
	}
}
