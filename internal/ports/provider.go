package ports

import (
	"context"
	"time"

	"smartswapSimulator/internal/domain"
)

// PriceSeriesProvider supplies a pair's time-ordered daily price series for a
// date range. Implementations must tolerate upstream price values arriving as
// formatted strings and parse them before returning.
type PriceSeriesProvider interface {
	// Series returns the daily samples for the pair within [start, end],
	// ordered by date ascending. A failure is reported as
	// ErrUpstreamUnavailable; the caller decides whether it is fatal.
	Series(ctx context.Context, pair string, start, end time.Time) (domain.PriceSeries, error)
}
