// Package gate decides whether every expected store has reported its daily
// upload. The check is a pure read with no locking; under eventually
// consistent reads a just-written record may be missing, so callers treat
// "not yet all done" as retryable, never fatal.
package gate

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// UploadReader lists the store ids that have an upload tracking record for
// a date.
type UploadReader interface {
	ReportedStores(ctx context.Context, date string) ([]string, error)
}

// Result reports the completeness of a date's uploads. Reported and Missing
// are sorted ascending.
type Result struct {
	Date          string   `json:"date"`
	AllDone       bool     `json:"all_stores_done"`
	Reported      []string `json:"stores_reported"`
	Missing       []string `json:"stores_missing"`
	TotalExpected int      `json:"total_expected"`
	TotalReported int      `json:"total_reported"`
}

// Gate compares reported stores against the expected roster.
type Gate struct {
	reader   UploadReader
	expected []string
	log      logrus.FieldLogger
}

// New creates a gate over a fixed roster of expected store ids.
func New(reader UploadReader, expected []string, log logrus.FieldLogger) *Gate {
	return &Gate{reader: reader, expected: expected, log: log}
}

// Check fetches the date's upload tracking records and reports which
// expected stores are still missing. Zero reported stores is a valid
// outcome, not an error.
func (g *Gate) Check(ctx context.Context, date string) (Result, error) {
	reported, err := g.reader.ReportedStores(ctx, date)
	if err != nil {
		return Result{}, fmt.Errorf("gate check %s: %w", date, err)
	}

	seen := make(map[string]struct{}, len(reported))
	for _, id := range reported {
		seen[id] = struct{}{}
	}

	missing := []string{}
	for _, id := range g.expected {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}

	sortedReported := append([]string{}, reported...)
	sort.Strings(sortedReported)
	sort.Strings(missing)

	result := Result{
		Date:          date,
		AllDone:       len(missing) == 0,
		Reported:      sortedReported,
		Missing:       missing,
		TotalExpected: len(g.expected),
		TotalReported: len(reported),
	}

	g.log.WithFields(logrus.Fields{
		"date":           date,
		"total_reported": result.TotalReported,
		"total_expected": result.TotalExpected,
		"all_done":       result.AllDone,
	}).Info("upload completeness checked")

	return result, nil
}
