package main

import (
	"database/sql"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/storepulse/backend/configs"

	_ "github.com/ClickHouse/clickhouse-go/v2" // ClickHouse driver
	"github.com/pressly/goose/v3"
)

func main() {
	cfg := configs.AppLoad()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Connect using native ClickHouse driver
	db, err := sql.Open("clickhouse", cfg.ClickHouseDSN)
	if err != nil {
		logger.WithField("error", err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	// Verify connection
	if err := db.Ping(); err != nil {
		logger.WithField("error", err).Error("Failed to ping database")
		os.Exit(1)
	}

	if err := goose.SetDialect("clickhouse"); err != nil {
		logger.WithField("error", err).Error("Goose: failed to set dialect")
		os.Exit(1)
	}

	logger.Info("Running database migrations...")
	if err := goose.Up(db, "internal/migrations"); err != nil {
		logger.WithField("error", err).Error("Goose migration failed")
		os.Exit(1)
	}

	logger.Info("Migrations completed successfully")
}
