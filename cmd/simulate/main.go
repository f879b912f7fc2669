package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"smartswapSimulator/config"
	"smartswapSimulator/internal/adapters/binanceclient"
	"smartswapSimulator/internal/adapters/logger"
	"smartswapSimulator/internal/adapters/qtsbe"
	"smartswapSimulator/internal/adapters/sqlite"
	"smartswapSimulator/internal/analytics"
	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/funds"
	"smartswapSimulator/internal/ledger"
	"smartswapSimulator/internal/ports"
	"smartswapSimulator/internal/simulation"
	"smartswapSimulator/internal/strategy"
	"smartswapSimulator/internal/utils"
)

// simulate runs one or all configured simulations once over their full
// window, prints a performance report and optionally exports positions
// to CSV. With -reset the simulation's stored state is wiped first so
// the run starts from scratch.
func main() {
	simName := flag.String("simulation", "", "run only the named simulation (default: all)")
	reset := flag.Bool("reset", false, "delete stored positions, funds and checkpoint before running")
	csvDir := flag.String("csv", "", "directory to export per-simulation position CSVs into")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	simulations, err := config.LoadSimulations(cfg.SimulationsPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load simulation definitions: %v", err)
	}
	if *simName != "" {
		var filtered []config.Simulation
		for _, sim := range simulations {
			if sim.Name == *simName {
				filtered = append(filtered, sim)
			}
		}
		if len(filtered) == 0 {
			log.Fatalf("FATAL: No simulation named %q in %s", *simName, cfg.SimulationsPath)
		}
		simulations = filtered
	}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
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

	posLedger, err := ledger.New(repo, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize position ledger: %v", err)
	}
	allocator, err := funds.New(repo, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize fund allocator: %v", err)
	}
	registry, err := strategy.DefaultRegistry(appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize strategy registry: %v", err)
	}

	driver, err := simulation.NewDriver(simulation.Config{
		Ledger:      posLedger,
		Allocator:   allocator,
		Checkpoints: repo,
		Provider:    provider,
		Registry:    registry,
		Notifier:    &logger.LogNotifier{Logger: appLogger},
		Logger:      appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize simulation driver: %v", err)
	}

	exitCode := 0
	for _, sim := range simulations {
		if *reset {
			if err := repo.DeleteSimulation(ctx, sim.Name); err != nil {
				log.Fatalf("FATAL: Failed to reset simulation %q: %v", sim.Name, err)
			}
			appLogger.Info(ctx, "Simulation state reset", map[string]interface{}{"simulation": sim.Name})
		}

		if err := driver.RunOnce(ctx, sim); err != nil {
			appLogger.Error(ctx, err, "Simulation run failed", map[string]interface{}{"simulation": sim.Name})
			exitCode = 1
			continue
		}

		positions, err := posLedger.History(ctx, sim.Name)
		if err != nil {
			appLogger.Error(ctx, err, "Failed to load positions for report", map[string]interface{}{"simulation": sim.Name})
			exitCode = 1
			continue
		}

		printReport(ctx, sim, positions, allocator)

		if *csvDir != "" {
			filename := fmt.Sprintf("%s/%s_positions.csv", *csvDir, sim.Name)
			if err := utils.WritePositionsToCSV(positions, filename); err != nil {
				appLogger.Error(ctx, err, "Failed to export CSV", map[string]interface{}{"filename": filename})
				exitCode = 1
				continue
			}
			fmt.Printf("Positions exported to %s\n", filename)
		}
	}

	if err := repo.Close(); err != nil {
		appLogger.Error(ctx, err, "Failed to close database", nil)
	}
	os.Exit(exitCode)
}

func printReport(ctx context.Context, sim config.Simulation, positions []*domain.Position, allocator *funds.Allocator) {
	metrics := analytics.AnalyzePerformance(positions)

	fmt.Printf("\n=== %s ===\n", sim.Name)
	fmt.Printf("Strategy:          %s\n", sim.Strategy)
	fmt.Printf("Pairs:             %v\n", sim.Pairs)
	fmt.Printf("Total Positions:   %d (%d open, %d closed)\n", metrics.TotalPositions, metrics.OpenPositions, metrics.ClosedPositions)
	if metrics.ClosedPositions > 0 {
		fmt.Printf("Win Rate:          %.2f%% (%d wins, %d losses)\n", metrics.WinRate*100, metrics.WinningTrades, metrics.LosingTrades)
		fmt.Printf("Average Ratio:     %.3f\n", metrics.AverageRatio)
		fmt.Printf("Best / Worst:      %.3f / %.3f\n", metrics.BestRatio, metrics.WorstRatio)
		fmt.Printf("Compound Ratio:    %.3f\n", metrics.CompoundRatio)
		fmt.Printf("Average Duration:  %.1f days\n", metrics.AverageDuration)
	}

	if sim.FundsEnabled() {
		capitals, err := allocator.SlotCapitals(ctx, sim.Name)
		if err == nil {
			var total float64
			for _, c := range capitals {
				total += c
			}
			fmt.Printf("Fund Slots:        %d, total capital %.3f (initial %.3f)\n", sim.MaxSlots(), total, sim.InitialCapital)
		}
		if !sim.ReinvestGains {
			benefits, err := allocator.TotalBenefits(ctx, sim.Name)
			if err == nil {
				fmt.Printf("Accrued Benefits:  %.3f\n", benefits)
			}
		}
	}

	if monthly := metrics.GetMonthlyRatios(); len(monthly) > 0 {
		fmt.Println("Monthly compounded ratios:")
		for _, m := range monthly {
			fmt.Printf("  %s  %.3f\n", m.Month.Format("2006-01"), m.Ratio)
		}
	}
}
