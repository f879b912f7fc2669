package ledger

import (
	"context"
	"fmt"
	"time"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"
)

// Ledger owns the position lifecycle: creation, lookup, closing and
// slot-occupancy queries. Every query re-reads the store, which is the single
// source of truth; the ledger keeps no in-memory state.
type Ledger struct {
	repo   ports.PositionRepository
	logger ports.Logger
}

// New creates a Ledger backed by the given repository.
func New(repo ports.PositionRepository, logger ports.Logger) (*Ledger, error) {
	if repo == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Ledger")
	}
	return &Ledger{repo: repo, logger: logger}, nil
}

// CreateParams carries the buy-side fields of a new position.
type CreateParams struct {
	Simulation string
	Pair       string
	BuyDate    time.Time
	BuyPrice   float64
	BuyIndex   int
	BuySignal  string
	FundSlot   int // 0 when slot tracking is disabled
}

// CreatePosition appends a new open position and returns its store ID.
// The buy price is rounded to 3 decimals before storage. Slot availability is
// the caller's responsibility: splitting the check and the insert across
// components would reintroduce the race this design avoids.
func (l *Ledger) CreatePosition(ctx context.Context, p CreateParams) (int64, error) {
	pos := &domain.Position{
		SimulationName: p.Simulation,
		Pair:           p.Pair,
		BuyDate:        domain.Day(p.BuyDate),
		BuyPrice:       domain.Round3(p.BuyPrice),
		BuyIndex:       p.BuyIndex,
		BuySignal:      p.BuySignal,
		FundSlot:       p.FundSlot,
	}
	id, err := l.repo.Create(ctx, pos)
	if err != nil {
		return 0, fmt.Errorf("ledger: create position for %s/%s: %w", p.Simulation, p.Pair, err)
	}
	l.logger.Info(ctx, "Position opened", map[string]interface{}{
		"positionID": id,
		"simulation": p.Simulation,
		"pair":       p.Pair,
		"buyPrice":   pos.BuyPrice,
		"fundSlot":   p.FundSlot,
	})
	return id, nil
}

// ClosePosition fills in the sell side of an open position, computing the
// whole-day duration and the sell/buy ratio. Closing an unknown position
// fails with ErrNotFound; closing an already-closed one fails with
// ErrAlreadyClosed. Either indicates a logic error upstream and is never
// silently ignored.
func (l *Ledger) ClosePosition(ctx context.Context, id int64, sellDate time.Time, sellPrice float64, sellIndex int, sellSignal string) (*domain.Position, error) {
	pos, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: look up position %d: %w", id, err)
	}
	if pos == nil {
		return nil, fmt.Errorf("ledger: close position %d: %w", id, ports.ErrNotFound)
	}
	if !pos.IsOpen() {
		return nil, fmt.Errorf("ledger: close position %d: %w", id, ports.ErrAlreadyClosed)
	}
	if sellIndex < pos.BuyIndex {
		return nil, fmt.Errorf("ledger: close position %d: sell index %d precedes buy index %d", id, sellIndex, pos.BuyIndex)
	}

	day := domain.Day(sellDate)
	price := domain.Round3(sellPrice)
	pos.SellDate = &day
	pos.SellPrice = &price
	pos.SellIndex = &sellIndex
	pos.SellSignal = &sellSignal
	pos.Duration = domain.DaysBetween(pos.BuyDate, day)
	pos.Ratio = domain.Ratio(price, pos.BuyPrice)

	if err := l.repo.ClosePosition(ctx, pos); err != nil {
		return nil, fmt.Errorf("ledger: close position %d: %w", id, err)
	}
	l.logger.Info(ctx, "Position closed", map[string]interface{}{
		"positionID": pos.ID,
		"simulation": pos.SimulationName,
		"pair":       pos.Pair,
		"sellPrice":  price,
		"ratio":      pos.Ratio,
		"duration":   pos.Duration,
	})
	return pos, nil
}

// OpenPositionsByPair returns the open positions for a pair, oldest buy first.
func (l *Ledger) OpenPositionsByPair(ctx context.Context, simulation, pair string) ([]*domain.Position, error) {
	positions, err := l.repo.FindOpenByPair(ctx, simulation, pair)
	if err != nil {
		return nil, fmt.Errorf("ledger: open positions for %s/%s: %w", simulation, pair, err)
	}
	return positions, nil
}

// FreeFundSlots returns the slot numbers not occupied by any open position,
// ascending. Computed as {1..maxSlots} minus the occupied set; the ascending
// order makes repeated calls under identical state reproducible.
func (l *Ledger) FreeFundSlots(ctx context.Context, simulation, pair string, scope ports.SlotScope, maxSlots int) ([]int, error) {
	occupied, err := l.repo.OccupiedSlots(ctx, simulation, pair, scope)
	if err != nil {
		return nil, fmt.Errorf("ledger: occupied slots for %s: %w", simulation, err)
	}
	taken := make(map[int]bool, len(occupied))
	for _, slot := range occupied {
		taken[slot] = true
	}
	free := make([]int, 0, maxSlots)
	for slot := 1; slot <= maxSlots; slot++ {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}

// MostRecentDate returns the latest buy or sell date recorded for the
// simulation, or nil when it has no positions. The driver uses it as a
// fallback resume point when no checkpoint exists.
func (l *Ledger) MostRecentDate(ctx context.Context, simulation string) (*time.Time, error) {
	date, err := l.repo.MostRecentDate(ctx, simulation)
	if err != nil {
		return nil, fmt.Errorf("ledger: most recent date for %s: %w", simulation, err)
	}
	return date, nil
}

// MaxIndexForPair returns the highest series index already recorded for a
// pair, or -1 when none. Used to avoid reprocessing already-seen bars.
func (l *Ledger) MaxIndexForPair(ctx context.Context, simulation, pair string) (int, error) {
	idx, err := l.repo.MaxIndexForPair(ctx, simulation, pair)
	if err != nil {
		return 0, fmt.Errorf("ledger: max index for %s/%s: %w", simulation, pair, err)
	}
	return idx, nil
}

// Position returns a single position by ID, or ErrNotFound.
func (l *Ledger) Position(ctx context.Context, id int64) (*domain.Position, error) {
	pos, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger: look up position %d: %w", id, err)
	}
	if pos == nil {
		return nil, fmt.Errorf("ledger: position %d: %w", id, ports.ErrNotFound)
	}
	return pos, nil
}

// History returns every position of a simulation, oldest buy first.
func (l *Ledger) History(ctx context.Context, simulation string) ([]*domain.Position, error) {
	positions, err := l.repo.FindBySimulation(ctx, simulation)
	if err != nil {
		return nil, fmt.Errorf("ledger: history for %s: %w", simulation, err)
	}
	return positions, nil
}
