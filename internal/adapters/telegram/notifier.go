package telegram

import (
	"context"
	"fmt"
	"time"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"

	tele "gopkg.in/telebot.v3"
)

// Notifier implements ports.Notifier over a Telegram chat. Delivery is
// fire-and-forget: send failures are logged and never propagated, so a
// Telegram outage can never stall a simulation.
type Notifier struct {
	bot    *tele.Bot
	chatID tele.ChatID
	logger ports.Logger
}

// Config holds configuration for the Telegram notifier.
type Config struct {
	Token  string
	ChatID int64
	Logger ports.Logger
}

// New creates a Telegram notifier. The bot is send-only; no poller runs.
func New(cfg Config) (*Notifier, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram notifier")
	}
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("token and chat ID are required for Telegram notifier")
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: tele.ChatID(cfg.ChatID), logger: cfg.Logger}, nil
}

func (n *Notifier) send(ctx context.Context, msg string) {
	if _, err := n.bot.Send(n.chatID, msg, tele.ModeMarkdown); err != nil {
		n.logger.Warn(ctx, "Telegram delivery failed", map[string]interface{}{"error": err.Error()})
	}
}

// PositionOpened reports a newly created position.
func (n *Notifier) PositionOpened(ctx context.Context, pos *domain.Position) {
	n.send(ctx, fmt.Sprintf("📈 *Opened Position*\n%s | %s\nbuy %s @ %.3f (slot %d)",
		pos.SimulationName, pos.Pair, pos.BuyDate.Format("2006-01-02"), pos.BuyPrice, pos.FundSlot))
}

// PositionClosed reports a position close with its final metrics.
func (n *Notifier) PositionClosed(ctx context.Context, pos *domain.Position) {
	if pos.SellDate == nil || pos.SellPrice == nil {
		return
	}
	n.send(ctx, fmt.Sprintf("🎊 *Closed Position*\n%s | %s\nsell %s @ %.3f\nratio %.3f | %d days",
		pos.SimulationName, pos.Pair, pos.SellDate.Format("2006-01-02"), *pos.SellPrice, pos.Ratio, pos.Duration))
}

// FundSlotUpdated reports a slot's capital after a close.
func (n *Notifier) FundSlotUpdated(ctx context.Context, simulation string, slot int, capital, benefits float64) {
	n.send(ctx, fmt.Sprintf("💰 *Fund Slot Updated*\n%s | slot %d\ncapital %.3f | benefits %.3f",
		simulation, slot, capital, benefits))
}

// NoPositionFound reports that a pass produced no open or close action.
func (n *Notifier) NoPositionFound(ctx context.Context, simulation string, date time.Time) {
	n.send(ctx, fmt.Sprintf("🔍 *No Position Found*\n%s | up to %s", simulation, date.Format("2006-01-02")))
}
