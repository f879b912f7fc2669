package indicators

import (
	"context"

	"smartswapSimulator/internal/domain"
)

// Indicator represents a technical indicator computed from a daily price series
type Indicator interface {
	// Calculate computes the indicator value for the given series
	Calculate(ctx context.Context, series domain.PriceSeries) (float64, error)

	// RequiredDataPoints returns the minimum number of samples needed for calculation
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of samples needed for calculation
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}
