package strategies

import (
	"context"
	"fmt"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"
	"smartswapSimulator/internal/strategy/indicators"
)

// RSIReversalConfig holds tuning for the RSI reversal strategy.
type RSIReversalConfig struct {
	Period     int     // RSI lookback, e.g. 14
	Oversold   float64 // Buy below this level, e.g. 30
	Overbought float64 // Sell above this level, e.g. 70
}

// RSIReversal buys oversold bars and sells open positions on overbought bars.
type RSIReversal struct {
	cfg    RSIReversalConfig
	rsi    *indicators.RSI
	logger ports.Logger
}

// NewRSIReversal creates the strategy with validated configuration.
func NewRSIReversal(cfg RSIReversalConfig, logger ports.Logger) (*RSIReversal, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("rsi reversal: period must be positive")
	}
	if cfg.Overbought <= cfg.Oversold || cfg.Overbought > 100 || cfg.Oversold < 0 {
		return nil, fmt.Errorf("rsi reversal: invalid thresholds (overbought must be > oversold, between 0-100)")
	}
	return &RSIReversal{
		cfg: cfg,
		rsi: indicators.NewRSI(indicators.RSIConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: cfg.Period},
			Overbought:      cfg.Overbought,
			Oversold:        cfg.Oversold,
		}),
		logger: logger,
	}, nil
}

// Name returns the registry identifier of the strategy.
func (s *RSIReversal) Name() string { return "rsi_reversal" }

// rsiState is the indicator state carried between signal calls.
type rsiState struct {
	value float64
	ok    bool
}

// ComputeIndicators computes the RSI over the series prefix. A prefix shorter
// than the lookback yields a neutral state rather than an error: early bars
// simply produce no signals.
func (s *RSIReversal) ComputeIndicators(ctx context.Context, series domain.PriceSeries) (ports.IndicatorState, error) {
	if len(series) <= s.cfg.Period {
		return &rsiState{}, nil
	}
	value, err := s.rsi.Calculate(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("rsi reversal: %w", err)
	}
	return &rsiState{value: value, ok: true}, nil
}

// BuySignal fires when the bar is oversold. Strength grows with the distance
// below the oversold threshold.
func (s *RSIReversal) BuySignal(ctx context.Context, current *domain.Position, series domain.PriceSeries, index int, state ports.IndicatorState) domain.Signal {
	st, ok := state.(*rsiState)
	if !ok || !st.ok {
		return domain.Signal{}
	}
	if !s.rsi.IsOversold(st.value) {
		return domain.Signal{}
	}
	return domain.Signal{
		Strength: s.cfg.Oversold - st.value + 1,
		Price:    series[index].Price,
	}
}

// SellSignal fires when the bar is overbought.
func (s *RSIReversal) SellSignal(ctx context.Context, position *domain.Position, series domain.PriceSeries, index int, state ports.IndicatorState) domain.Signal {
	st, ok := state.(*rsiState)
	if !ok || !st.ok {
		return domain.Signal{}
	}
	if !s.rsi.IsOverbought(st.value) {
		return domain.Signal{}
	}
	return domain.Signal{
		Strength: st.value - s.cfg.Overbought + 1,
		Price:    series[index].Price,
	}
}
