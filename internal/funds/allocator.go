package funds

import (
	"context"
	"fmt"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"
)

// Allocator owns fund slot bookkeeping: the initial even capital split and
// the compounding updates applied after each position close. Capital history
// is append-only per slot so a slot's trajectory stays auditable.
type Allocator struct {
	repo   ports.FundRepository
	logger ports.Logger
}

// New creates an Allocator backed by the given repository.
func New(repo ports.FundRepository, logger ports.Logger) (*Allocator, error) {
	if repo == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Allocator")
	}
	return &Allocator{repo: repo, logger: logger}, nil
}

// Initialize seeds every slot of a simulation with an even share of the
// initial capital. Idempotent: slots that already have a capital record are
// left untouched, so resuming a simulation never resets capital.
func (a *Allocator) Initialize(ctx context.Context, simulation string, maxSlots int, initialCapital float64) error {
	if maxSlots <= 0 {
		return fmt.Errorf("funds: initialize %s: maxSlots must be positive, got %d: %w", simulation, maxSlots, ports.ErrConfiguration)
	}
	perSlot := domain.Round3(initialCapital / float64(maxSlots))
	for slot := 1; slot <= maxSlots; slot++ {
		existing, err := a.repo.LatestCapital(ctx, simulation, slot)
		if err != nil {
			return fmt.Errorf("funds: initialize %s slot %d: %w", simulation, slot, err)
		}
		if existing != nil {
			continue
		}
		rec := &domain.FundRecord{
			SimulationName: simulation,
			Slot:           slot,
			Capital:        perSlot,
		}
		if _, err := a.repo.AppendCapital(ctx, rec); err != nil {
			return fmt.Errorf("funds: initialize %s slot %d: %w", simulation, slot, err)
		}
		a.logger.Debug(ctx, "Fund slot initialized", map[string]interface{}{
			"simulation": simulation,
			"slot":       slot,
			"capital":    perSlot,
		})
	}
	return nil
}

// UpdateAfterClose applies a closed position's ratio to its slot. In
// reinvest mode the slot capital compounds; otherwise the capital record is
// carried forward unchanged and the delta goes to the benefits accumulator.
// A slot with no prior capital record means initialization never ran, which
// is a configuration fault and fails loudly.
// Returns the slot's capital after the update and the simulation's benefits total.
func (a *Allocator) UpdateAfterClose(ctx context.Context, simulation string, slot int, ratio float64, positionID int64, reinvest bool) (float64, float64, error) {
	current, err := a.repo.LatestCapital(ctx, simulation, slot)
	if err != nil {
		return 0, 0, fmt.Errorf("funds: update slot %d for %s: %w", slot, simulation, err)
	}
	if current == nil {
		return 0, 0, fmt.Errorf("funds: update slot %d for %s: no capital record, slot was never initialized: %w", slot, simulation, ports.ErrConfiguration)
	}

	newCapital := current.Capital
	if reinvest {
		newCapital = domain.Round3(current.Capital * ratio)
	}
	rec := &domain.FundRecord{
		SimulationName: simulation,
		Slot:           slot,
		LastPositionID: positionID,
		Capital:        newCapital,
	}
	if _, err := a.repo.AppendCapital(ctx, rec); err != nil {
		return 0, 0, fmt.Errorf("funds: update slot %d for %s: %w", slot, simulation, err)
	}

	if !reinvest {
		delta := domain.Round3(current.Capital*ratio - current.Capital)
		benefit := &domain.BenefitRecord{
			SimulationName: simulation,
			Slot:           slot,
			PositionID:     positionID,
			Amount:         delta,
		}
		if _, err := a.repo.AppendBenefit(ctx, benefit); err != nil {
			return 0, 0, fmt.Errorf("funds: record benefit for slot %d of %s: %w", slot, simulation, err)
		}
	}

	benefits, err := a.repo.TotalBenefits(ctx, simulation)
	if err != nil {
		return 0, 0, fmt.Errorf("funds: total benefits for %s: %w", simulation, err)
	}

	a.logger.Info(ctx, "Fund slot updated", map[string]interface{}{
		"simulation": simulation,
		"slot":       slot,
		"ratio":      ratio,
		"capital":    newCapital,
		"benefits":   benefits,
		"reinvest":   reinvest,
	})
	return newCapital, benefits, nil
}

// TotalBenefits returns the simulation's accumulated benefits.
func (a *Allocator) TotalBenefits(ctx context.Context, simulation string) (float64, error) {
	total, err := a.repo.TotalBenefits(ctx, simulation)
	if err != nil {
		return 0, fmt.Errorf("funds: total benefits for %s: %w", simulation, err)
	}
	return total, nil
}

// SlotCapitals returns the current capital of every slot.
func (a *Allocator) SlotCapitals(ctx context.Context, simulation string) (map[int]float64, error) {
	capitals, err := a.repo.LatestCapitals(ctx, simulation)
	if err != nil {
		return nil, fmt.Errorf("funds: slot capitals for %s: %w", simulation, err)
	}
	return capitals, nil
}

// SlotHistory returns a slot's capital trajectory, oldest first.
func (a *Allocator) SlotHistory(ctx context.Context, simulation string, slot int) ([]*domain.FundRecord, error) {
	history, err := a.repo.SlotHistory(ctx, simulation, slot)
	if err != nil {
		return nil, fmt.Errorf("funds: slot history for %s slot %d: %w", simulation, slot, err)
	}
	return history, nil
}
