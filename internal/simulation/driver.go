package simulation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"smartswapSimulator/config"
	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/funds"
	"smartswapSimulator/internal/ledger"
	"smartswapSimulator/internal/ports"
	"smartswapSimulator/internal/strategy"
)

// yieldEvery bounds how many dates are processed before the driver offers the
// scheduler a chance to run other work. A fairness measure, not correctness.
const yieldEvery = 64

// Driver runs the simulation control loop: it advances each pair's index
// through its price series in calendar lock-step, invokes the strategy and
// orchestrates ledger and allocator updates. One driver instance per
// simulation name at a time; concurrent drivers for the same simulation are
// not supported and must be prevented by the host.
type Driver struct {
	ledger      *ledger.Ledger
	allocator   *funds.Allocator
	checkpoints ports.CheckpointRepository
	provider    ports.PriceSeriesProvider
	registry    *strategy.Registry
	notifier    ports.Notifier
	logger      ports.Logger
	now         func() time.Time
}

// Config holds the Driver's dependencies.
type Config struct {
	Ledger      *ledger.Ledger
	Allocator   *funds.Allocator
	Checkpoints ports.CheckpointRepository
	Provider    ports.PriceSeriesProvider
	Registry    *strategy.Registry
	Notifier    ports.Notifier
	Logger      ports.Logger
	Now         func() time.Time // injected clock, defaults to time.Now
}

// NewDriver creates a simulation driver.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Ledger == nil || cfg.Allocator == nil || cfg.Checkpoints == nil ||
		cfg.Provider == nil || cfg.Registry == nil || cfg.Notifier == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Driver")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Driver{
		ledger:      cfg.Ledger,
		allocator:   cfg.Allocator,
		checkpoints: cfg.Checkpoints,
		provider:    cfg.Provider,
		registry:    cfg.Registry,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		now:         now,
	}, nil
}

// RunOnce performs one catching-up pass for a simulation: it resolves the
// resume point, replays every unprocessed calendar date up to the window end
// and advances the checkpoint date by date. Once caught up it returns
// quickly, so the host can invoke it on a fixed cadence.
func (d *Driver) RunOnce(ctx context.Context, sim config.Simulation) error {
	strat, err := d.registry.Get(sim.Strategy)
	if err != nil {
		return fmt.Errorf("simulation %s: %w", sim.Name, err)
	}

	endDate := domain.Day(d.now())
	if sim.EndDate != nil {
		endDate = domain.Day(*sim.EndDate)
	}

	// Fetch every pair's series up front. A failing pair is skipped for this
	// pass; the others still advance.
	seriesByPair := make(map[string]domain.PriceSeries, len(sim.Pairs))
	for _, pair := range sim.Pairs {
		series, err := d.provider.Series(ctx, pair, sim.StartDate, endDate)
		if err != nil {
			d.logger.Warn(ctx, "Price series fetch failed, skipping pair for this pass", map[string]interface{}{
				"simulation": sim.Name,
				"pair":       pair,
				"error":      err.Error(),
			})
			continue
		}
		seriesByPair[pair] = series
	}
	if len(seriesByPair) == 0 {
		d.logger.Warn(ctx, "No price data available for any pair", map[string]interface{}{"simulation": sim.Name})
		return nil
	}

	resume, err := d.resumePoint(ctx, sim)
	if err != nil {
		return err
	}

	dates := unionDates(seriesByPair, resume, endDate)
	if len(dates) == 0 {
		return nil // caught up
	}

	if sim.FundsEnabled() {
		if err := d.allocator.Initialize(ctx, sim.Name, sim.MaxSlots(), sim.InitialCapital); err != nil {
			return fmt.Errorf("simulation %s: %w", sim.Name, err)
		}
	}

	// Highest series index already recorded per pair; guards buy evaluation
	// against reprocessing bars a previous (possibly interrupted) pass saw.
	maxIndex := make(map[string]int, len(seriesByPair))
	for pair := range seriesByPair {
		idx, err := d.ledger.MaxIndexForPair(ctx, sim.Name, pair)
		if err != nil {
			return fmt.Errorf("simulation %s: %w", sim.Name, err)
		}
		maxIndex[pair] = idx
	}

	d.logger.Info(ctx, "Replaying simulation window", map[string]interface{}{
		"simulation": sim.Name,
		"from":       dates[0].Format("2006-01-02"),
		"to":         dates[len(dates)-1].Format("2006-01-02"),
		"dates":      len(dates),
	})

	acted := false
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, pair := range sim.Pairs {
			series, ok := seriesByPair[pair]
			if !ok {
				continue
			}
			pairActed, err := d.processPairDate(ctx, sim, strat, pair, series, date, maxIndex)
			if err != nil {
				return fmt.Errorf("simulation %s: pair %s on %s: %w", sim.Name, pair, date.Format("2006-01-02"), err)
			}
			acted = acted || pairActed
		}
		// The checkpoint only advances after the date's work fully completed,
		// so a crash mid-date is safe to re-run.
		if err := d.checkpoints.SaveCheckpoint(ctx, sim.Name, date); err != nil {
			return fmt.Errorf("simulation %s: %w", sim.Name, err)
		}
		if (i+1)%yieldEvery == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}

	if !acted {
		d.notifier.NoPositionFound(ctx, sim.Name, dates[len(dates)-1])
	}
	return nil
}

// processPairDate advances one pair through one calendar date: sell
// evaluations for every open position first, then at most one buy.
func (d *Driver) processPairDate(ctx context.Context, sim config.Simulation, strat ports.Strategy, pair string, series domain.PriceSeries, date time.Time, maxIndex map[string]int) (bool, error) {
	idx, ok := series.IndexOf(date)
	if !ok {
		return false, nil // missing bar is not an error
	}

	state, err := strat.ComputeIndicators(ctx, series[:idx+1])
	if err != nil {
		// Indicator failures are transient for this pair and date.
		d.logger.Warn(ctx, "Indicator computation failed, skipping pair for this date", map[string]interface{}{
			"simulation": sim.Name,
			"pair":       pair,
			"date":       date.Format("2006-01-02"),
			"error":      err.Error(),
		})
		return false, nil
	}

	open, err := d.ledger.OpenPositionsByPair(ctx, sim.Name, pair)
	if err != nil {
		return false, err
	}

	// Close-before-open: every sell evaluation for the date precedes any buy,
	// and a position is attempted at most once per pass.
	acted := false
	closedNow := make(map[int64]bool)
	remaining := make([]*domain.Position, 0, len(open))
	for _, pos := range open {
		if closedNow[pos.ID] || pos.BuyIndex > idx {
			remaining = append(remaining, pos)
			continue
		}
		sig := strat.SellSignal(ctx, pos, series, idx, state)
		if !sig.Fires() {
			remaining = append(remaining, pos)
			continue
		}
		closed, err := d.ledger.ClosePosition(ctx, pos.ID, date, sig.Price, idx, signalLabel(sig))
		if err != nil {
			return false, err
		}
		closedNow[pos.ID] = true
		acted = true
		if sim.FundsEnabled() && closed.FundSlot > 0 {
			capital, benefits, err := d.allocator.UpdateAfterClose(ctx, sim.Name, closed.FundSlot, closed.Ratio, closed.ID, sim.ReinvestGains)
			if err != nil {
				return false, err
			}
			d.notifier.FundSlotUpdated(ctx, sim.Name, closed.FundSlot, capital, benefits)
		}
		d.notifier.PositionClosed(ctx, closed)
	}

	// Buy only on bars no earlier pass has recorded for this pair.
	if idx <= maxIndex[pair] {
		return acted, nil
	}

	slot := 0
	if sim.FundsEnabled() {
		// Occupancy is computed fresh after the closes above, so a slot freed
		// today is available again today.
		free, err := d.ledger.FreeFundSlots(ctx, sim.Name, pair, sim.SlotScope, sim.MaxSlots())
		if err != nil {
			return acted, err
		}
		if len(free) == 0 {
			return acted, nil
		}
		slot = free[0]
	}

	var current *domain.Position
	if len(remaining) > 0 {
		current = remaining[0] // oldest still-open position
	}
	sig := strat.BuySignal(ctx, current, series, idx, state)
	if !sig.Fires() {
		return acted, nil
	}

	id, err := d.ledger.CreatePosition(ctx, ledger.CreateParams{
		Simulation: sim.Name,
		Pair:       pair,
		BuyDate:    date,
		BuyPrice:   sig.Price,
		BuyIndex:   idx,
		BuySignal:  signalLabel(sig),
		FundSlot:   slot,
	})
	if err != nil {
		return acted, err
	}
	maxIndex[pair] = idx

	// Re-read from the store so the notifier sees exactly what was persisted.
	opened, err := d.ledger.Position(ctx, id)
	if err != nil {
		return true, err
	}
	d.notifier.PositionOpened(ctx, opened)
	return true, nil
}

// resumePoint returns the exclusive lower bound for dates to process: the
// checkpoint when one exists, otherwise the day before the ledger's most
// recent activity so the last active date is replayed. Replays are safe: the
// max-index guard blocks duplicate buys and only still-open positions get a
// sell evaluation. Clamped to no earlier than the day before the window start.
func (d *Driver) resumePoint(ctx context.Context, sim config.Simulation) (time.Time, error) {
	floor := domain.Day(sim.StartDate).AddDate(0, 0, -1)

	cp, err := d.checkpoints.GetCheckpoint(ctx, sim.Name)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation %s: %w", sim.Name, err)
	}
	if cp != nil {
		if cp.Before(floor) {
			return floor, nil
		}
		return domain.Day(*cp), nil
	}

	recent, err := d.ledger.MostRecentDate(ctx, sim.Name)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation %s: %w", sim.Name, err)
	}
	if recent != nil {
		if fallback := domain.Day(*recent).AddDate(0, 0, -1); fallback.After(floor) {
			return fallback, nil
		}
	}
	return floor, nil
}

// unionDates builds the sorted union of every pair's bar dates within
// (resume, end]. Pairs may have gaps or different calendars; processing
// advances by calendar date, not per-pair index, to keep cross-pair ordering
// deterministic.
func unionDates(seriesByPair map[string]domain.PriceSeries, resume, end time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	for _, series := range seriesByPair {
		for _, p := range series {
			day := domain.Day(p.Date)
			if day.After(resume) && !day.After(end) {
				seen[day] = true
			}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for day := range seen {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func signalLabel(sig domain.Signal) string {
	return fmt.Sprintf("strength=%.3f", sig.Strength)
}
