package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/configs"
	"github.com/storepulse/backend/internal/api"
	"github.com/storepulse/backend/internal/gate"
	"github.com/storepulse/backend/internal/history"
	"github.com/storepulse/backend/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	appConfig := configs.AppLoad()

	table, err := store.NewMongoTable(context.Background(), appConfig.Mongo.URI, appConfig.Mongo.Database, appConfig.Mongo.Collection)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to connect to MongoDB")
	}
	defer table.Close(context.Background())

	salesStore := store.NewSalesStore(table, logger)
	uploadGate := gate.New(salesStore, appConfig.ExpectedStores, logger)
	historian := history.New(salesStore, appConfig.HistoricalDays, logger)

	service := api.NewService(salesStore, uploadGate, historian, logger)
	handler := api.NewAnalyticsHandler(service)

	router := api.NewRouter(&api.RouterConfig{
		AnalyticsHandler: handler,
	})

	logger.WithField("port", appConfig.ServerPort).Info("Analytics API started")
	if err := router.Run(fmt.Sprintf(":%s", appConfig.ServerPort)); err != nil {
		logger.WithField("error", err).Fatal("Server stopped")
	}
}
