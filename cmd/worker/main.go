package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/configs"
	"github.com/storepulse/backend/internal/analysis"
	"github.com/storepulse/backend/internal/gate"
	"github.com/storepulse/backend/internal/history"
	"github.com/storepulse/backend/internal/insights"
	"github.com/storepulse/backend/internal/llm"
	"github.com/storepulse/backend/internal/metrics"
	"github.com/storepulse/backend/internal/pipeline"
	"github.com/storepulse/backend/internal/report"
	"github.com/storepulse/backend/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	appConfig := configs.AppLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := store.NewMongoTable(ctx, appConfig.Mongo.URI, appConfig.Mongo.Database, appConfig.Mongo.Collection)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to connect to MongoDB")
	}
	defer table.Close(context.Background())

	salesStore := store.NewSalesStore(table, logger)
	uploadGate := gate.New(salesStore, appConfig.ExpectedStores, logger)
	historian := history.New(salesStore, appConfig.HistoricalDays, logger)

	llmClient, err := llm.NewClient(llm.Config{
		Endpoint:          appConfig.LLM.Endpoint,
		Model:             appConfig.LLM.Model,
		APIKey:            appConfig.LLM.APIKey,
		Timeout:           time.Duration(appConfig.LLM.TimeoutSeconds) * time.Second,
		RequestsPerMinute: appConfig.LLM.RequestsPerMinute,
	}, logger)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to build LLM client")
	}

	analyzer := analysis.New(llmClient, historian, logger)
	combiner := insights.New(salesStore, logger)

	publisher, err := report.NewPublisher(appConfig.KafkaReport.Broker, appConfig.KafkaReport.Topic, logger)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to build report publisher")
	}
	defer publisher.Close()

	processor := pipeline.NewProcessor(
		metrics.NewAggregator(logger),
		salesStore,
		uploadGate,
		analyzer,
		combiner,
		publisher,
		logger,
	)

	worker := pipeline.NewWorker(kafka.ReaderConfig{
		Brokers:        []string{appConfig.KafkaUpload.Broker},
		Topic:          appConfig.KafkaUpload.Topic,
		GroupID:        appConfig.KafkaUpload.GroupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // Important: We handle commits manually in the worker!
	}, processor, logger)

	logger.Info("Upload worker started successfully")

	if err := worker.Start(ctx); err != nil {
		logger.WithField("error", err).Error("Upload worker stopped with error")
		os.Exit(1)
	}

	logger.Info("Upload worker shutdown complete")
}
