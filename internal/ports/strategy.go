package ports

import (
	"context"

	"smartswapSimulator/internal/domain"
)

// IndicatorState is the opaque output of a strategy's indicator pass over a
// series prefix. The engine carries it between calls but never inspects it.
type IndicatorState interface{}

// Strategy defines the pluggable buy/sell decision logic the driver invokes.
// Implementations are registered by name in the strategy registry.
type Strategy interface {
	// Name returns the registry identifier of the strategy.
	Name() string

	// ComputeIndicators derives indicator state from a series prefix. The
	// last element of the prefix is the bar currently being evaluated.
	ComputeIndicators(ctx context.Context, series domain.PriceSeries) (IndicatorState, error)

	// BuySignal decides whether to open a position at the given index.
	// current is the oldest still-open position for the pair, or nil.
	BuySignal(ctx context.Context, current *domain.Position, series domain.PriceSeries, index int, state IndicatorState) domain.Signal

	// SellSignal decides whether to close the given open position at the given index.
	SellSignal(ctx context.Context, position *domain.Position, series domain.PriceSeries, index int, state IndicatorState) domain.Signal
}
