package strategy

import (
	"fmt"

	"smartswapSimulator/internal/ports"
	"smartswapSimulator/internal/strategy/strategies"
)

// DefaultRegistry builds a registry with the built-in strategies under their
// default tuning. Simulations reference these by name.
func DefaultRegistry(logger ports.Logger) (*Registry, error) {
	reg := NewRegistry()

	rsi, err := strategies.NewRSIReversal(strategies.RSIReversalConfig{
		Period:     14,
		Oversold:   30,
		Overbought: 70,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build rsi_reversal strategy: %w", err)
	}
	if err := reg.Register(rsi); err != nil {
		return nil, err
	}

	ma, err := strategies.NewMACrossover(strategies.MACrossoverConfig{
		ShortPeriod: 20,
		LongPeriod:  50,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build ma_crossover strategy: %w", err)
	}
	if err := reg.Register(ma); err != nil {
		return nil, err
	}

	return reg, nil
}
