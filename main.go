package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"smartswapSimulator/config"
	"smartswapSimulator/internal/adapters/binanceclient"
	"smartswapSimulator/internal/adapters/logger"
	"smartswapSimulator/internal/adapters/qtsbe"
	"smartswapSimulator/internal/adapters/sqlite"
	"smartswapSimulator/internal/adapters/telegram"
	"smartswapSimulator/internal/app"
	"smartswapSimulator/internal/funds"
	"smartswapSimulator/internal/ledger"
	"smartswapSimulator/internal/ports"
	"smartswapSimulator/internal/simulation"
	"smartswapSimulator/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.UseZap {
		zl, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize structured logger: %v", err)
		}
		defer func() { _ = zl.Sync() }()
		appLogger = zl
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Load Simulation Definitions
	simulations, err := config.LoadSimulations(cfg.SimulationsPath)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to load simulation definitions")
		log.Fatalf("FATAL: Failed to load simulation definitions: %v", err)
	}
	appLogger.Info(context.Background(), "Simulation definitions loaded", map[string]interface{}{"count": len(simulations)})

	// 4. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 5. Initialize Price Series Provider
	var provider ports.PriceSeriesProvider
	switch cfg.Provider {
	case "binance":
		provider, err = binanceclient.New(binanceclient.Config{
			APIKey:    cfg.BinanceAPIKey,
			SecretKey: cfg.BinanceSecretKey,
			Logger:    appLogger,
		})
	default:
		provider, err = qtsbe.New(qtsbe.Config{
			BaseURL: cfg.QTSBEBaseURL,
			Logger:  appLogger,
		})
	}
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price series provider")
		log.Fatalf("FATAL: Failed to initialize price series provider: %v", err)
	}
	appLogger.Info(context.Background(), "Price series provider initialized", map[string]interface{}{"provider": cfg.Provider})

	// 6. Initialize Notifier
	var notifier ports.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = telegram.New(telegram.Config{
			Token:  cfg.TelegramToken,
			ChatID: cfg.TelegramChatID,
			Logger: appLogger,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Telegram notifier")
			log.Fatalf("FATAL: Failed to initialize Telegram notifier: %v", err)
		}
		appLogger.Info(context.Background(), "Telegram notifier initialized")
	} else {
		notifier = &logger.LogNotifier{Logger: appLogger}
		appLogger.Info(context.Background(), "Telegram not configured, notifications go to the log")
	}

	// 7. Initialize Core Components
	posLedger, err := ledger.New(repo, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize position ledger")
		log.Fatalf("FATAL: Failed to initialize position ledger: %v", err)
	}
	allocator, err := funds.New(repo, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize fund allocator")
		log.Fatalf("FATAL: Failed to initialize fund allocator: %v", err)
	}
	registry, err := strategy.DefaultRegistry(appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize strategy registry")
		log.Fatalf("FATAL: Failed to initialize strategy registry: %v", err)
	}

	driver, err := simulation.NewDriver(simulation.Config{
		Ledger:      posLedger,
		Allocator:   allocator,
		Checkpoints: repo,
		Provider:    provider,
		Registry:    registry,
		Notifier:    notifier,
		Logger:      appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize simulation driver")
		log.Fatalf("FATAL: Failed to initialize simulation driver: %v", err)
	}
	appLogger.Info(context.Background(), "Simulation driver initialized")

	// 8. Initialize Application Service
	service, err := app.NewSimulatorService(cfg, appLogger, driver, simulations)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize simulator service")
		log.Fatalf("FATAL: Failed to initialize simulator service: %v", err)
	}
	appLogger.Info(context.Background(), "Simulator service initialized")

	// 9. Start the Service
	// Use context.Background() as the base context for the application run
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Simulator service exited with error")
		log.Fatalf("FATAL: Simulator service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
