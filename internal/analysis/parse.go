package analysis

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/internal/model"
)

// extractJSON strips a markdown code fence if the model wrapped its answer
// in one. Without a fence the whole text is taken as the candidate JSON.
func extractJSON(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+len("```"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}

// Model output is untrusted text. A response that does not decode yields an
// empty list, never an error.

func parseAnomalies(text string, log logrus.FieldLogger) []model.Anomaly {
	var out struct {
		Anomalies []model.Anomaly `json:"anomalies"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		log.WithField("error", err).Warn("unparseable anomaly response, returning none")
		return nil
	}
	return out.Anomalies
}

func parseTrends(text string, log logrus.FieldLogger) []model.TrendInsight {
	var out struct {
		Trends []model.TrendInsight `json:"trends"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		log.WithField("error", err).Warn("unparseable trend response, returning none")
		return nil
	}
	return out.Trends
}

func parseRecommendations(text string, log logrus.FieldLogger) []model.Recommendation {
	var out struct {
		Recommendations []model.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		log.WithField("error", err).Warn("unparseable recommendation response, returning none")
		return nil
	}
	return out.Recommendations
}
