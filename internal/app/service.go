package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartswapSimulator/config"
	"smartswapSimulator/internal/ports"
)

// Runner performs one catching-up pass for a simulation.
// Satisfied by *simulation.Driver.
type Runner interface {
	RunOnce(ctx context.Context, sim config.Simulation) error
}

// SimulatorService runs all configured simulations on a fixed interval.
type SimulatorService struct {
	cfg         *config.Config
	logger      ports.Logger
	driver      Runner
	simulations []config.Simulation
}

// NewSimulatorService creates a new application service instance.
func NewSimulatorService(
	cfg *config.Config,
	logger ports.Logger,
	driver Runner,
	simulations []config.Simulation,
) (*SimulatorService, error) {

	if cfg == nil || logger == nil || driver == nil {
		return nil, fmt.Errorf("missing required dependencies for SimulatorService")
	}
	if len(simulations) == 0 {
		return nil, fmt.Errorf("no simulations configured")
	}

	return &SimulatorService{
		cfg:         cfg,
		logger:      logger,
		driver:      driver,
		simulations: simulations,
	}, nil
}

// Start begins the service's main loop. It runs every configured simulation
// once immediately, then again on each tick until the context is cancelled
// or a shutdown signal arrives.
func (s *SimulatorService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Simulator Service...", map[string]interface{}{
		"simulations":  len(s.simulations),
		"tickInterval": s.cfg.TickInterval.String(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// First pass runs immediately so a restart catches up without waiting
	// for the ticker.
	if err := s.runAll(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Simulator Service stopped.")
			return nil
		case <-ticker.C:
			if err := s.runAll(ctx); err != nil {
				return err
			}
		}
	}
}

// runAll executes a single pass over every simulation. An upstream outage,
// whether the price source or the persistent store, aborts the whole pass so
// the next tick retries from the checkpoint; other per-simulation errors are
// logged and the pass continues.
func (s *SimulatorService) runAll(ctx context.Context) error {
	for _, sim := range s.simulations {
		if ctx.Err() != nil {
			return nil
		}
		start := time.Now()
		err := s.driver.RunOnce(ctx, sim)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, ports.ErrUpstreamUnavailable) {
				s.logger.Error(ctx, err, "Upstream dependency unavailable, aborting pass", map[string]interface{}{"simulation": sim.Name})
				return nil
			}
			s.logger.Error(ctx, err, "Simulation run failed", map[string]interface{}{"simulation": sim.Name})
			continue
		}
		s.logger.Info(ctx, "Simulation run complete", map[string]interface{}{
			"simulation": sim.Name,
			"elapsed":    time.Since(start).String(),
		})
	}
	return nil
}
