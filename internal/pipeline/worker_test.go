package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/storepulse/backend/internal/gate"
	"github.com/storepulse/backend/internal/metrics"
	"github.com/storepulse/backend/internal/model"
)

type fakeSource struct {
	messages  []kafka.Message
	next      int
	committed []int64
	closed    bool
	cancel    context.CancelFunc
}

func (f *fakeSource) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if f.next >= len(f.messages) {
		f.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := f.messages[f.next]
	f.next++
	return m, nil
}

func (f *fakeSource) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func uploadMessage(t *testing.T, offset int64, event UploadEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Offset: offset, Value: value}
}

func TestWorkerCommitsProcessedAndRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{cancel: cancel, messages: []kafka.Message{
		uploadMessage(t, 1, UploadEvent{
			StoreID:   "0001",
			Date:      "2024-03-10",
			LineItems: []model.LineItem{lineItem("T1", "SMF-001", 1, "9.99")},
		}),
		{Offset: 2, Value: []byte("not json")},
		uploadMessage(t, 3, UploadEvent{Date: "2024-03-10"}), // missing store_id
	}}

	store := &fakeStore{}
	processor := newProcessor(store, &fakeGate{result: gate.Result{AllDone: false}}, &fakeAnalysis{}, &fakeCombiner{}, &fakePublisher{})
	w := &Worker{source: source, processor: processor, log: testLogger()}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(source.committed) != 3 {
		t.Fatalf("committed %v, want offsets 1,2,3", source.committed)
	}
	if !source.closed {
		t.Fatal("reader not closed on shutdown")
	}
	if len(store.writtenDaily) != 1 {
		t.Fatalf("expected exactly one persisted summary, got %d", len(store.writtenDaily))
	}
}

func TestWorkerLeavesTransientFailuresUncommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSource{cancel: cancel, messages: []kafka.Message{
		uploadMessage(t, 7, UploadEvent{
			StoreID:   "0001",
			Date:      "2024-03-10",
			LineItems: []model.LineItem{lineItem("T1", "SMF-001", 1, "9.99")},
		}),
	}}

	store := &fakeStore{writeErr: errTransient}
	processor := NewProcessor(metrics.NewAggregator(testLogger()), store, &fakeGate{}, &fakeAnalysis{}, &fakeCombiner{}, &fakePublisher{}, testLogger())
	w := &Worker{source: source, processor: processor, log: testLogger()}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(source.committed) != 0 {
		t.Fatalf("transient failure must not commit, got %v", source.committed)
	}
}

type failingSource struct {
	fetches int
	cancel  context.CancelFunc
	closed  bool
}

func (f *failingSource) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if ctx.Err() != nil {
		return kafka.Message{}, ctx.Err()
	}
	f.fetches++
	// Cancel while the worker sits in its backoff wait.
	time.AfterFunc(50*time.Millisecond, f.cancel)
	return kafka.Message{}, errTransient
}

func (f *failingSource) CommitMessages(context.Context, ...kafka.Message) error { return nil }

func (f *failingSource) Close() error {
	f.closed = true
	return nil
}

func TestWorkerBacksOffAfterFetchError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &failingSource{cancel: cancel}
	store := &fakeStore{}
	processor := newProcessor(store, &fakeGate{}, &fakeAnalysis{}, &fakeCombiner{}, &fakePublisher{})
	w := &Worker{source: source, processor: processor, retryDelay: time.Hour, log: testLogger()}

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// The context is cancelled during the backoff wait, so Start must
	// return without sleeping out the full delay.
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not shut down during backoff")
	}

	if source.fetches != 1 {
		t.Fatalf("fetches = %d, want 1", source.fetches)
	}
	if !source.closed {
		t.Fatal("reader not closed on shutdown")
	}
}

var errTransient = &transientError{}

type transientError struct{}

func (*transientError) Error() string { return "db down" }
