package gate

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeReader struct {
	stores []string
	err    error
	calls  int
}

func (f *fakeReader) ReportedStores(context.Context, string) ([]string, error) {
	f.calls++
	return f.stores, f.err
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func roster() []string {
	return []string{"0001", "0002", "0003", "0004", "0005", "0006", "0007", "0008", "0009", "0010", "0011"}
}

func TestCheckSomeMissing(t *testing.T) {
	reader := &fakeReader{stores: []string{"0001", "0003", "0005", "0007", "0009"}}
	g := New(reader, roster(), quietLogger())

	result, err := g.Check(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if result.AllDone {
		t.Error("Expected all_done=false")
	}
	wantMissing := []string{"0002", "0004", "0006", "0008", "0010", "0011"}
	if !reflect.DeepEqual(result.Missing, wantMissing) {
		t.Errorf("Expected missing %v, got %v", wantMissing, result.Missing)
	}
	if result.TotalExpected != 11 || result.TotalReported != 5 {
		t.Errorf("Unexpected counts: expected=%d reported=%d", result.TotalExpected, result.TotalReported)
	}
}

func TestCheckAllDone(t *testing.T) {
	reader := &fakeReader{stores: roster()}
	g := New(reader, roster(), quietLogger())

	result, err := g.Check(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !result.AllDone {
		t.Error("Expected all_done=true")
	}
	if len(result.Missing) != 0 {
		t.Errorf("Expected no missing stores, got %v", result.Missing)
	}
}

func TestCheckZeroReported(t *testing.T) {
	reader := &fakeReader{stores: nil}
	g := New(reader, roster(), quietLogger())

	result, err := g.Check(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if result.AllDone {
		t.Error("Expected all_done=false with zero reported stores")
	}
	if len(result.Reported) != 0 {
		t.Errorf("Expected empty reported list, got %v", result.Reported)
	}
	if len(result.Missing) != 11 {
		t.Errorf("Expected all 11 stores missing, got %d", len(result.Missing))
	}
}

func TestCheckReportedSorted(t *testing.T) {
	reader := &fakeReader{stores: []string{"0009", "0001", "0005"}}
	g := New(reader, roster(), quietLogger())

	result, err := g.Check(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	want := []string{"0001", "0005", "0009"}
	if !reflect.DeepEqual(result.Reported, want) {
		t.Errorf("Expected sorted reported %v, got %v", want, result.Reported)
	}
}

func TestCheckUnexpectedStoreIgnoredByRoster(t *testing.T) {
	// A store outside the roster counts as reported but never as missing.
	reader := &fakeReader{stores: []string{"9999"}}
	g := New(reader, []string{"0001"}, quietLogger())

	result, err := g.Check(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if result.AllDone {
		t.Error("Expected all_done=false, roster store 0001 has not reported")
	}
	if !reflect.DeepEqual(result.Missing, []string{"0001"}) {
		t.Errorf("Expected missing [0001], got %v", result.Missing)
	}
}

func TestCheckRepeatable(t *testing.T) {
	reader := &fakeReader{stores: []string{"0001"}}
	g := New(reader, roster(), quietLogger())

	first, err := g.Check(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Check(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results for repeated checks, got %+v vs %+v", first, second)
	}
	if reader.calls != 2 {
		t.Errorf("Expected one read per check, got %d", reader.calls)
	}
}

func TestCheckReadError(t *testing.T) {
	reader := &fakeReader{err: errors.New("index lag")}
	g := New(reader, roster(), quietLogger())

	if _, err := g.Check(context.Background(), "2025-01-15"); err == nil {
		t.Error("Expected error to propagate from reader")
	}
}
