package main

import (
	"flag"
	"fmt"
	"os"

	"stock-pipeline/src/config"
	"stock-pipeline/src/fetcher"
	"stock-pipeline/src/interfaces"
	"stock-pipeline/src/logger"
	"stock-pipeline/src/pipeline"
	"stock-pipeline/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file (optional)")
	symbol := flag.String("symbol", "", "fetch and store a single symbol instead of the configured list")
	flag.Parse()

	// Load config from YAML file and environment
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Setup storage backend
	var store interfaces.IQuoteStore
	switch cfg.Storage.DBType {
	case "sqlite":
		store = storage.NewSQLiteDB(cfg, appLogger.Named("SQLiteDB"))
	default:
		store = storage.NewPostgresDB(cfg, appLogger.Named("PostgresDB"))
	}

	source := fetcher.NewAlphaVantageSource(cfg.MConfig, appLogger.Named("AlphaVantage"))
	p := pipeline.NewPipeline(cfg, appLogger, source, store)

	// Single-symbol mode: fetch and store one quote, skip the success gate.
	if *symbol != "" {
		if err := p.RunSingle(*symbol); err != nil {
			appLogger.Error("Data storage failed: %v", err)
			fmt.Println("Data storage failed")
			os.Exit(1)
		}
		fmt.Println("Data storage successful")
		return
	}

	if err := p.Run(); err != nil {
		appLogger.Error("Pipeline run failed: %v", err)
		os.Exit(1)
	}
}
