package logger

import (
	"context"
	"time"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"
)

// LogNotifier implements ports.Notifier by writing events to the logger.
// Used when no Telegram chat is configured.
type LogNotifier struct {
	Logger ports.Logger
}

// PositionOpened reports a newly created position.
func (n *LogNotifier) PositionOpened(ctx context.Context, pos *domain.Position) {
	n.Logger.Info(ctx, "Event: position opened", map[string]interface{}{
		"simulation": pos.SimulationName,
		"pair":       pos.Pair,
		"buyDate":    pos.BuyDate.Format("2006-01-02"),
		"buyPrice":   pos.BuyPrice,
		"fundSlot":   pos.FundSlot,
	})
}

// PositionClosed reports a position close with its final metrics.
func (n *LogNotifier) PositionClosed(ctx context.Context, pos *domain.Position) {
	fields := map[string]interface{}{
		"simulation": pos.SimulationName,
		"pair":       pos.Pair,
		"ratio":      pos.Ratio,
		"duration":   pos.Duration,
	}
	if pos.SellDate != nil {
		fields["sellDate"] = pos.SellDate.Format("2006-01-02")
	}
	n.Logger.Info(ctx, "Event: position closed", fields)
}

// FundSlotUpdated reports a slot's capital after a close.
func (n *LogNotifier) FundSlotUpdated(ctx context.Context, simulation string, slot int, capital, benefits float64) {
	n.Logger.Info(ctx, "Event: fund slot updated", map[string]interface{}{
		"simulation": simulation,
		"slot":       slot,
		"capital":    capital,
		"benefits":   benefits,
	})
}

// NoPositionFound reports that a pass produced no open or close action.
func (n *LogNotifier) NoPositionFound(ctx context.Context, simulation string, date time.Time) {
	n.Logger.Debug(ctx, "Event: no position found", map[string]interface{}{
		"simulation": simulation,
		"date":       date.Format("2006-01-02"),
	})
}
