package ports

import (
	"context"
	"time"

	"smartswapSimulator/internal/domain"
)

// SlotScope controls whether fund-slot occupancy is judged per trading pair
// or across the whole simulation.
type SlotScope string

const (
	SlotScopePair       SlotScope = "pair"
	SlotScopeSimulation SlotScope = "simulation"
)

// PositionRepository defines the interface for storing and retrieving simulated positions.
type PositionRepository interface {
	// Create saves a new open position and returns its assigned ID.
	Create(ctx context.Context, pos *domain.Position) (int64, error)
	// ClosePosition writes the sell-side fields of a position in a single
	// update. The update only applies to a still-open row; zero rows affected
	// means the position was closed concurrently.
	ClosePosition(ctx context.Context, pos *domain.Position) error
	// FindByID retrieves a position by its unique ID. Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Position, error)
	// FindOpenByPair retrieves open positions for a pair, oldest buy first.
	FindOpenByPair(ctx context.Context, simulation, pair string) ([]*domain.Position, error)
	// FindBySimulation retrieves every position of a simulation, oldest buy first.
	FindBySimulation(ctx context.Context, simulation string) ([]*domain.Position, error)
	// OccupiedSlots returns the distinct fund slots referenced by open
	// positions, scoped per pair or per simulation.
	OccupiedSlots(ctx context.Context, simulation, pair string, scope SlotScope) ([]int, error)
	// MostRecentDate returns the max of buy and sell dates across the
	// simulation's positions. Returns nil, nil when no positions exist.
	MostRecentDate(ctx context.Context, simulation string) (*time.Time, error)
	// MaxIndexForPair returns the highest buy or sell index recorded for a
	// pair, or -1 when no positions exist for it.
	MaxIndexForPair(ctx context.Context, simulation, pair string) (int, error)
	// DeleteSimulation removes all positions of a simulation. Only used by
	// operator tooling, never during a simulation pass.
	DeleteSimulation(ctx context.Context, simulation string) error
}

// FundRepository defines the interface for the append-only fund slot capital history.
type FundRepository interface {
	// AppendCapital adds a capital record to a slot's history and returns its ID.
	AppendCapital(ctx context.Context, rec *domain.FundRecord) (int64, error)
	// LatestCapital returns the most recent capital record for a slot.
	// Returns nil, nil when the slot has no history.
	LatestCapital(ctx context.Context, simulation string, slot int) (*domain.FundRecord, error)
	// LatestCapitals returns the current capital of every slot of a simulation.
	LatestCapitals(ctx context.Context, simulation string) (map[int]float64, error)
	// SlotHistory returns a slot's full capital trajectory, oldest first.
	SlotHistory(ctx context.Context, simulation string, slot int) ([]*domain.FundRecord, error)
	// AppendBenefit adds a benefit record and returns its ID.
	AppendBenefit(ctx context.Context, rec *domain.BenefitRecord) (int64, error)
	// TotalBenefits sums all benefit records of a simulation.
	TotalBenefits(ctx context.Context, simulation string) (float64, error)
}

// CheckpointRepository persists the furthest calendar date fully processed
// per simulation so the driver can resume without recomputing history.
type CheckpointRepository interface {
	// GetCheckpoint returns the last fully processed date. Returns nil, nil
	// when the simulation has never run.
	GetCheckpoint(ctx context.Context, simulation string) (*time.Time, error)
	// SaveCheckpoint advances the checkpoint to the given date. The stored
	// value only moves forward, it is never rolled back.
	SaveCheckpoint(ctx context.Context, simulation string, date time.Time) error
}
