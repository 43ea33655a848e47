package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/configs"
	"github.com/storepulse/backend/internal/export"
	"github.com/storepulse/backend/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	appConfig := configs.AppLoad()

	endDate := flag.String("date", time.Now().Format("2006-01-02"), "Last date of the export range (YYYY-MM-DD)")
	days := flag.Int("days", appConfig.ExportDays, "Number of trailing days to export")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := store.NewMongoTable(ctx, appConfig.Mongo.URI, appConfig.Mongo.Database, appConfig.Mongo.Collection)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to connect to MongoDB")
	}
	defer table.Close(context.Background())

	warehouse, err := export.NewClickHouseWarehouse(appConfig.ClickHouseDSN)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to connect to ClickHouse")
	}
	defer warehouse.Close()

	salesStore := store.NewSalesStore(table, logger)
	exporter := export.NewExporter(salesStore, warehouse, logger)

	counts, err := exporter.Run(ctx, *endDate, *days)
	if err != nil {
		logger.WithField("error", err).Fatal("Export failed")
	}

	logger.WithFields(logrus.Fields{
		"days":     counts.Days,
		"stores":   counts.StoreSummaries,
		"products": counts.ProductSummaries,
		"insights": counts.Insights,
	}).Info("Export completed successfully")
}
