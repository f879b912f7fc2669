package ports

import (
	"context"
	"time"

	"smartswapSimulator/internal/domain"
)

// Notifier receives simulation lifecycle events for external reporting.
// Delivery is fire-and-forget: implementations log their own failures and
// never propagate them back into the simulation.
type Notifier interface {
	// PositionOpened reports a newly created position.
	PositionOpened(ctx context.Context, pos *domain.Position)
	// PositionClosed reports a position close with its final metrics.
	PositionClosed(ctx context.Context, pos *domain.Position)
	// FundSlotUpdated reports a slot's capital after a close, together with
	// the simulation's accumulated benefits.
	FundSlotUpdated(ctx context.Context, simulation string, slot int, capital, benefits float64)
	// NoPositionFound reports that a pass produced no open or close action.
	NoPositionFound(ctx context.Context, simulation string, date time.Time)
}
