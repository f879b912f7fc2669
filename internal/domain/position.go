package domain

import "time"

// Position represents a single simulated buy-to-sell trade.
// A position is open while its sell fields are unset; it is mutated exactly
// once, at close time, and never deleted afterwards.
type Position struct {
	ID             int64     // Unique identifier assigned by the store
	SimulationName string    // Simulation this position belongs to
	Pair           string    // Trading pair (e.g., "BTC/USDT")
	BuyDate        time.Time // Calendar date of the buy (UTC midnight)
	BuyPrice       float64   // Fill price at buy, rounded to 3 decimals
	BuyIndex       int       // Index of the buy bar within the pair's series
	BuySignal      string    // Strategy-provided annotation for the buy
	FundSlot       int       // Capital slot occupied (0 when slot tracking is disabled)

	// Sell-side fields, nil while the position is open.
	SellDate   *time.Time
	SellPrice  *float64
	SellIndex  *int
	SellSignal *string

	Duration int     // Whole days between buy and sell, set at close
	Ratio    float64 // SellPrice / BuyPrice rounded to 3 decimals, set at close
}

// IsOpen reports whether the position has not been sold yet.
func (p *Position) IsOpen() bool {
	return p.SellIndex == nil
}
