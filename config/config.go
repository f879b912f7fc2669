package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"smartswapSimulator/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all process-wide configuration. Per-simulation settings live
// in the simulations JSON file (see LoadSimulations).
type Config struct {
	// Database
	DBPath string

	// Simulations definition file
	SimulationsPath string

	// Price series provider selection: "qtsbe" or "binance"
	Provider string

	// QTSBE provider
	QTSBEBaseURL string

	// Binance provider (public klines endpoints work without keys)
	BinanceAPIKey    string
	BinanceSecretKey string

	// Telegram notifier; notifications are disabled when the token is empty
	TelegramToken  string
	TelegramChatID int64

	// Driver cadence
	TickInterval time.Duration

	// Logging
	LogLevel logger.LogLevel
	UseZap   bool // structured zap logger for the long-running service
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.DBPath = getEnv("DB_PATH", "./data/simulator.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.SimulationsPath = getEnv("SIMULATIONS_PATH", "./configs/simulations.json")
	if cfg.SimulationsPath == "" {
		errs = append(errs, "SIMULATIONS_PATH must be set")
	}

	cfg.Provider = strings.ToLower(getEnv("PRICE_PROVIDER", "qtsbe"))
	switch cfg.Provider {
	case "qtsbe", "binance":
	default:
		errs = append(errs, fmt.Sprintf("PRICE_PROVIDER must be 'qtsbe' or 'binance', got '%s'", cfg.Provider))
	}

	cfg.QTSBEBaseURL = getEnv("QTSBE_BASE_URL", "http://127.0.0.1:5000")
	if cfg.Provider == "qtsbe" && cfg.QTSBEBaseURL == "" {
		errs = append(errs, "QTSBE_BASE_URL must be set when PRICE_PROVIDER is 'qtsbe'")
	}

	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")

	cfg.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.TelegramChatID, err = getEnvAsInt64("TELEGRAM_CHAT_ID", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TELEGRAM_CHAT_ID: %v", err))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		errs = append(errs, "TELEGRAM_CHAT_ID must be set when TELEGRAM_TOKEN is set")
	}

	tickSeconds := getEnvAsInt("TICK_INTERVAL_SECONDS", 1)
	if tickSeconds <= 0 {
		errs = append(errs, "TICK_INTERVAL_SECONDS must be positive")
	}
	cfg.TickInterval = time.Duration(tickSeconds) * time.Second

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)
	cfg.UseZap = getEnvAsBool("LOG_STRUCTURED", true)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) (int64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
