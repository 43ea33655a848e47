package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// fetchRetryDelay spaces out fetch attempts against an unreachable broker.
const fetchRetryDelay = time.Second

// eventSource is the subset of kafka.Reader the worker uses.
type eventSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Worker consumes upload events and feeds them to the processor. Rejected
// payloads are committed so they are not redelivered; transient processing
// failures leave the offset uncommitted for retry.
type Worker struct {
	source     eventSource
	processor  *Processor
	retryDelay time.Duration
	log        logrus.FieldLogger
}

func NewWorker(cfg kafka.ReaderConfig, processor *Processor, log logrus.FieldLogger) *Worker {
	return &Worker{
		source:     kafka.NewReader(cfg),
		processor:  processor,
		retryDelay: fetchRetryDelay,
		log:        log,
	}
}

// Start consumes until the context is cancelled, then closes the reader.
func (w *Worker) Start(ctx context.Context) error {
	w.log.Info("upload worker started")

	for {
		msg, err := w.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.log.WithField("error", err).Error("fetch failed")
			select {
			case <-ctx.Done():
			case <-time.After(w.retryDelay):
			}
			continue
		}

		w.handle(ctx, msg)
	}

	w.log.Info("shutting down upload worker")
	if err := w.source.Close(); err != nil {
		w.log.WithField("error", err).Error("reader close failed")
		return err
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, msg kafka.Message) {
	var event UploadEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.log.WithFields(logrus.Fields{
			"offset": msg.Offset,
			"error":  err,
		}).Warn("undecodable upload event, skipping")
		w.commit(ctx, msg)
		return
	}

	err := w.processor.ProcessUpload(ctx, event)
	switch {
	case err == nil:
		w.commit(ctx, msg)
	case errors.Is(err, ErrRejected):
		w.log.WithFields(logrus.Fields{
			"store_id": event.StoreID,
			"date":     event.Date,
			"error":    err,
		}).Warn("upload rejected")
		w.commit(ctx, msg)
	default:
		// transient failure, leave uncommitted for redelivery
		w.log.WithFields(logrus.Fields{
			"store_id": event.StoreID,
			"date":     event.Date,
			"error":    err,
		}).Error("upload processing failed")
	}
}

func (w *Worker) commit(ctx context.Context, msg kafka.Message) {
	if err := w.source.CommitMessages(ctx, msg); err != nil {
		w.log.WithField("error", err).Error("commit failed")
	}
}
