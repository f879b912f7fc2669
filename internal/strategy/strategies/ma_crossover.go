package strategies

import (
	"context"
	"fmt"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"
	"smartswapSimulator/internal/strategy/indicators"
)

// MACrossoverConfig holds tuning for the moving average crossover strategy.
type MACrossoverConfig struct {
	ShortPeriod int // e.g. 20
	LongPeriod  int // e.g. 50
}

// MACrossover buys when the short SMA crosses above the long SMA and sells
// open positions on the opposite cross.
type MACrossover struct {
	cfg     MACrossoverConfig
	shortMA *indicators.MovingAverage
	longMA  *indicators.MovingAverage
	logger  ports.Logger
}

// NewMACrossover creates the strategy with validated configuration.
func NewMACrossover(cfg MACrossoverConfig, logger ports.Logger) (*MACrossover, error) {
	if cfg.ShortPeriod <= 0 || cfg.LongPeriod <= 0 {
		return nil, fmt.Errorf("ma crossover: periods must be positive")
	}
	if cfg.ShortPeriod >= cfg.LongPeriod {
		return nil, fmt.Errorf("ma crossover: short period must be less than long period")
	}
	newMA := func(period int) *indicators.MovingAverage {
		return indicators.NewMovingAverage(indicators.MovingAverageConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: period},
			Type:            indicators.SimpleMovingAverage,
		})
	}
	return &MACrossover{
		cfg:     cfg,
		shortMA: newMA(cfg.ShortPeriod),
		longMA:  newMA(cfg.LongPeriod),
		logger:  logger,
	}, nil
}

// Name returns the registry identifier of the strategy.
func (s *MACrossover) Name() string { return "ma_crossover" }

// maState holds the crossover comparison for the current and previous bar.
type maState struct {
	shortNow, longNow   float64
	shortPrev, longPrev float64
	ok                  bool
}

// ComputeIndicators evaluates both averages at the last bar and the bar
// before it so the signal functions can detect a cross.
func (s *MACrossover) ComputeIndicators(ctx context.Context, series domain.PriceSeries) (ports.IndicatorState, error) {
	if len(series) < s.cfg.LongPeriod+1 {
		return &maState{}, nil
	}
	st := &maState{ok: true}
	var err error
	if st.shortNow, err = s.shortMA.Calculate(ctx, series); err != nil {
		return nil, fmt.Errorf("ma crossover: %w", err)
	}
	if st.longNow, err = s.longMA.Calculate(ctx, series); err != nil {
		return nil, fmt.Errorf("ma crossover: %w", err)
	}
	prev := series[:len(series)-1]
	if st.shortPrev, err = s.shortMA.Calculate(ctx, prev); err != nil {
		return nil, fmt.Errorf("ma crossover: %w", err)
	}
	if st.longPrev, err = s.longMA.Calculate(ctx, prev); err != nil {
		return nil, fmt.Errorf("ma crossover: %w", err)
	}
	return st, nil
}

// BuySignal fires on an upward cross of the short average over the long one.
func (s *MACrossover) BuySignal(ctx context.Context, current *domain.Position, series domain.PriceSeries, index int, state ports.IndicatorState) domain.Signal {
	st, ok := state.(*maState)
	if !ok || !st.ok {
		return domain.Signal{}
	}
	if st.shortPrev <= st.longPrev && st.shortNow > st.longNow {
		return domain.Signal{Strength: st.shortNow - st.longNow, Price: series[index].Price}
	}
	return domain.Signal{}
}

// SellSignal fires on a downward cross.
func (s *MACrossover) SellSignal(ctx context.Context, position *domain.Position, series domain.PriceSeries, index int, state ports.IndicatorState) domain.Signal {
	st, ok := state.(*maState)
	if !ok || !st.ok {
		return domain.Signal{}
	}
	if st.shortPrev >= st.longPrev && st.shortNow < st.longNow {
		return domain.Signal{Strength: st.longNow - st.shortNow, Price: series[index].Price}
	}
	return domain.Signal{}
}
