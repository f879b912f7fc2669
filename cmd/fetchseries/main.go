package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartswapSimulator/config"
	"smartswapSimulator/internal/adapters/binanceclient"
	"smartswapSimulator/internal/adapters/logger"
	"smartswapSimulator/internal/adapters/qtsbe"
	"smartswapSimulator/internal/ports"
	"smartswapSimulator/internal/utils"
)

// fetchseries downloads a daily price series from the configured provider
// and writes it to a CSV file, useful for inspecting what the driver sees.
func main() {
	pair := flag.String("pair", "BTC/USDT", "trading pair to fetch")
	startStr := flag.String("start", "", "start date (2006-01-02), default 3 months ago")
	endStr := flag.String("end", "", "end date (2006-01-02), default today")
	out := flag.String("out", "", "output CSV path, default data/<pair>_<start>_to_<end>.csv")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	end := time.Now().UTC()
	if *endStr != "" {
		end, err = time.Parse("2006-01-02", *endStr)
		if err != nil {
			log.Fatalf("FATAL: Invalid -end date: %v", err)
		}
	}
	start := end.AddDate(0, -3, 0)
	if *startStr != "" {
		start, err = time.Parse("2006-01-02", *startStr)
		if err != nil {
			log.Fatalf("FATAL: Invalid -start date: %v", err)
		}
	}

	var provider ports.PriceSeriesProvider
	switch cfg.Provider {
	case "binance":
		provider, err = binanceclient.New(binanceclient.Config{
			APIKey:    cfg.BinanceAPIKey,
			SecretKey: cfg.BinanceSecretKey,
			Logger:    appLogger,
		})
	default:
		provider, err = qtsbe.New(qtsbe.Config{BaseURL: cfg.QTSBEBaseURL, Logger: appLogger})
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize price series provider: %v", err)
	}

	fmt.Printf("Fetching %s from %s to %s...\n", *pair, start.Format("2006-01-02"), end.Format("2006-01-02"))
	series, err := provider.Series(ctx, *pair, start, end)
	if err != nil {
		log.Fatalf("FATAL: Failed to fetch series: %v", err)
	}
	appLogger.Info(ctx, "Fetched price series", map[string]interface{}{"pair": *pair, "points": len(series)})

	filename := *out
	if filename == "" {
		safePair := strings.ReplaceAll(*pair, "/", "_")
		filename = fmt.Sprintf("data/%s_%s_to_%s.csv", safePair, start.Format("20060102"), end.Format("20060102"))
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		log.Fatalf("FATAL: Failed to create output directory: %v", err)
	}
	if err := utils.WriteSeriesToCSV(*pair, series, filename); err != nil {
		log.Fatalf("FATAL: Failed to write CSV: %v", err)
	}
	fmt.Printf("Saved %d points to %s\n", len(series), filename)
}
